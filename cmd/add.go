package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kasaledger/kasa"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// addCmd holds the flags for the 'add' subcommand.
type addCmd struct {
	kind     string
	date     string
	amount   string
	currency string
	category string
	account  string
	to       string
	payee    string
	memo     string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an expense, an income or a transfer" }
func (*addCmd) Usage() string {
	return `ksa add -amount <amount> [-kind expense|income|transfer] [-d <date>] [flags]

  Records a new entry in the ledger.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "expense", "Entry kind: expense, income or transfer.")
	f.StringVar(&c.date, "d", kasa.Today().String(), "Date of the entry (YYYY-MM-DD).")
	f.StringVar(&c.amount, "amount", "", "Amount of the entry, e.g. 12.50.")
	f.StringVar(&c.currency, "currency", "", "Currency of the amount, e.g. EUR.")
	f.StringVar(&c.category, "category", "", "Category of the entry, e.g. groceries.")
	f.StringVar(&c.account, "account", "", "Account the money moves on (or from, for transfers).")
	f.StringVar(&c.to, "to", "", "Destination account, for transfers.")
	f.StringVar(&c.payee, "payee", "", "Who was paid or who paid.")
	f.StringVar(&c.memo, "memo", "", "Free-form note.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := kasa.ParseKind(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	on, err := kasa.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	value, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount %q: %v\n", c.amount, err)
		return subcommands.ExitUsageError
	}

	e := kasa.Entry{
		Kind:      kind,
		Date:      on,
		Amount:    kasa.M(value, c.currency),
		Category:  c.category,
		Account:   c.account,
		ToAccount: c.to,
		Payee:     c.payee,
		Memo:      c.memo,
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	created, err := s.CreateEntry(ctx, e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording entry: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s %s (%s)\n", created.Kind, created.Amount, created.ID)
	return subcommands.ExitSuccess
}
