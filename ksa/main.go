// Command ksa is the personal finance tracker CLI.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/kasaledger/kasa/cmd"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the shell completion of the ksa command. Run
// COMP_INSTALL=1 ksa to install it.
var completion = &complete.Command{
	Flags: map[string]complete.Predictor{
		"ledger-file": predict.Files("*.jsonl"),
		"db":          predict.Files("*.db"),
	},
	Sub: map[string]*complete.Command{
		"add":     {Flags: map[string]complete.Predictor{"kind": predict.Set{"expense", "income", "transfer"}}},
		"tx":      {Flags: map[string]complete.Predictor{"kind": predict.Set{"expense", "income", "transfer"}}},
		"fmt":     {},
		"summary": {},
		"budget":  {},
		"retries": {},
		"import":  {Flags: map[string]complete.Predictor{"f": predict.Files("*.jsonl")}},
		"export":  {},
		"topic":   {},
		"assist":  {},
	},
}

func main() {
	completion.Complete("ksa")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
