package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
)

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import entries from a JSONL stream" }
func (*importCmd) Usage() string {
	return `ksa import [-f <file>]

  Imports entries from a JSONL file, or from stdin when no file is given.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "File to import from; stdin by default.")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var in io.Reader = os.Stdin
	if c.file != "" {
		f, err := os.Open(c.file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", c.file, err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		in = f
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	n, err := s.Import(ctx, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error after %d entries: %v\n", n, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Imported %d entries\n", n)
	return subcommands.ExitSuccess
}

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	tx txCmd // reuse the listing filters
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export entries as JSONL" }
func (*exportCmd) Usage() string {
	return `ksa export [filter flags]

  Writes the entries matching the filters to stdout, one JSON object per
  line. Accepts the same filter flags as 'tx'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) { c.tx.SetFlags(f) }

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter, err := c.tx.filter()
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

	if err := s.Export(ctx, os.Stdout, filter); err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting entries: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
