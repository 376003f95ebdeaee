package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kasaledger/kasa"
	"github.com/google/subcommands"
)

// fmtCmd rewrites the ledger file in canonical order.
type fmtCmd struct{}

func (*fmtCmd) Name() string     { return "fmt" }
func (*fmtCmd) Synopsis() string { return "rewrite the ledger file in canonical order" }
func (*fmtCmd) Usage() string {
	return `ksa fmt

  Rewrites the JSONL ledger file chronologically with canonical field order,
  so it diffs cleanly under version control.
`
}

func (*fmtCmd) SetFlags(*flag.FlagSet) {}

func (c *fmtCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if *dbFile != "" {
		fmt.Fprintln(os.Stderr, "Error: fmt only applies to the JSONL ledger")
		return subcommands.ExitUsageError
	}

	f, err := os.Open(*ledgerFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	entries, err := kasa.DecodeEntries(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}

	out, err := os.Create(*ledgerFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rewriting ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	defer out.Close()
	if err := kasa.EncodeEntries(out, entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error rewriting ledger %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Formatted %d entries in %s\n", len(entries), *ledgerFile)
	return subcommands.ExitSuccess
}
