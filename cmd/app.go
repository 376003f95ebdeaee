// Package cmd implements the CLI application to manage a personal ledger.
package cmd

import (
	"flag"
	"fmt"

	"github.com/kasaledger/kasa/session"
	"github.com/kasaledger/kasa/store"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "ledger")
	c.Register(&txCmd{}, "ledger")
	c.Register(&fmtCmd{}, "ledger")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&budgetCmd{}, "reports")
	c.Register(&retriesCmd{}, "reports")

	c.Register(&importCmd{}, "exchange")
	c.Register(&exportCmd{}, "exchange")

	c.Register(&topicCmd{}, "help")
	c.Register(&assistCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger-file", "entries.jsonl", "Path to the ledger file containing entries (JSONL format)")
var dbFile = flag.String("db", "", "Path to a SQLite database; takes precedence over -ledger-file when set")

// openRepository opens the backing store selected by the global flags.
func openRepository() (store.Repository, error) {
	if *dbFile != "" {
		return store.OpenSQLite(*dbFile)
	}
	return store.OpenJSONL(*ledgerFile)
}

// openSession wires a full session over the selected store.
func openSession() (*session.Session, error) {
	repo, err := openRepository()
	if err != nil {
		return nil, fmt.Errorf("could not open the ledger: %w", err)
	}
	return session.New(repo), nil
}
