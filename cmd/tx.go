package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/renderer"
	"github.com/kasaledger/kasa/store"
	"github.com/google/subcommands"
)

// txCmd holds the flags for the 'tx' subcommand.
type txCmd struct {
	category string
	account  string
	kind     string
	from     string
	to       string
	expr     string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the ledger entries" }
func (*txCmd) Usage() string {
	return `ksa tx [-category <cat>] [-account <acc>] [-kind <kind>] [-from <date>] [-to <date>] [-expr <jsonpath>]

  Lists the entries matching the given filters, chronologically.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", "", "Only entries of this category.")
	f.StringVar(&c.account, "account", "", "Only entries touching this account.")
	f.StringVar(&c.kind, "kind", "", "Only entries of this kind.")
	f.StringVar(&c.from, "from", "", "Only entries on or after this date.")
	f.StringVar(&c.to, "to", "", "Only entries on or before this date.")
	f.StringVar(&c.expr, "expr", "", "A JSONPath expression entries must match, e.g. '$.payee'.")
}

// filter builds the store filter from the flags.
func (c *txCmd) filter() (store.Filter, error) {
	f := store.Filter{Category: c.category, Account: c.account, Expr: c.expr}
	if c.kind != "" {
		kind, err := kasa.ParseKind(c.kind)
		if err != nil {
			return f, err
		}
		f.Kind = kind
	}
	var err error
	if c.from != "" {
		if f.From, err = kasa.ParseDate(c.from); err != nil {
			return f, err
		}
	}
	if c.to != "" {
		if f.To, err = kasa.ParseDate(c.to); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (c *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter, err := c.filter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	entries, err := s.Entries(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing entries: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderEntries(entries))
	return subcommands.ExitSuccess
}
