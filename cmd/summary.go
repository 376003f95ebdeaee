package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	date     string
	currency string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display a month summary of income and spending" }
func (*summaryCmd) Usage() string {
	return `ksa summary [-d <date>] [-currency <cur>]

  Displays the income, spending and net of the month, with spending broken
  down by category.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", kasa.Today().String(), "Any date inside the month to summarize.")
	f.StringVar(&c.currency, "currency", "EUR", "The reporting currency.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	sum, err := s.Summary(ctx, on, c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing summary: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderSummary(&sum))
	return subcommands.ExitSuccess
}
