package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// budgetCmd holds the flags for the 'budget' subcommand.
type budgetCmd struct {
	category string
	limit    string
	currency string
	date     string
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "track a monthly spending limit for a category" }
func (*budgetCmd) Usage() string {
	return `ksa budget -category <cat> -limit <amount> [-currency <cur>] [-d <date>]

  Compares the month's spending in a category against a limit, with burn
  rate and end-of-month projection.
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", "", "The category to track.")
	f.StringVar(&c.limit, "limit", "", "The monthly spending limit, e.g. 400.")
	f.StringVar(&c.currency, "currency", "EUR", "The currency of the limit.")
	f.StringVar(&c.date, "d", kasa.Today().String(), "Any date inside the month to track.")
}

func (c *budgetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.category == "" || c.limit == "" {
		fmt.Fprintln(os.Stderr, "Error: -category and -limit are required")
		return subcommands.ExitUsageError
	}
	limit, err := decimal.NewFromString(c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing limit %q: %v\n", c.limit, err)
		return subcommands.ExitUsageError
	}
	on, err := kasa.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	stats, err := s.BudgetStats(ctx, kasa.Budget{Category: c.category, Limit: kasa.M(limit, c.currency)}, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing budget: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderBudget(&stats))
	return subcommands.ExitSuccess
}
