package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kasaledger/kasa/renderer"
	"github.com/google/subcommands"
)

// retriesCmd shows the pending retry tickets of the session.
type retriesCmd struct{}

func (*retriesCmd) Name() string     { return "retries" }
func (*retriesCmd) Synopsis() string { return "show the pending write retries" }
func (*retriesCmd) Usage() string {
	return `ksa retries

  Shows the failed writes waiting for a retry, with their attempt count and
  next scheduled attempt.
`
}

func (*retriesCmd) SetFlags(*flag.FlagSet) {}

func (c *retriesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	tickets := s.Retries.Tickets()
	if len(tickets) == 0 {
		fmt.Println("No pending retries.")
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.RenderRetries(tickets))
	return subcommands.ExitSuccess
}
