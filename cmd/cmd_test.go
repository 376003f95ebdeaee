package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kasaledger/kasa"
	"github.com/google/subcommands"
)

func TestTxFilter(t *testing.T) {
	tests := []struct {
		name    string
		cmd     txCmd
		wantErr bool
	}{
		{"empty", txCmd{}, false},
		{"category and range", txCmd{category: "groceries", from: "2026-08-01", to: "2026-08-31"}, false},
		{"kind", txCmd{kind: "transfer"}, false},
		{"bad kind", txCmd{kind: "withdrawal"}, true},
		{"bad date", txCmd{from: "not-a-date"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := tc.cmd.filter()
			if (err != nil) != tc.wantErr {
				t.Fatalf("filter() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if f.Category != tc.cmd.category {
				t.Errorf("Category = %q, want %q", f.Category, tc.cmd.category)
			}
		})
	}
}

func TestAddThenFmt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.jsonl")
	prev := *ledgerFile
	*ledgerFile = path
	defer func() { *ledgerFile = prev }()

	add := &addCmd{
		kind:     "expense",
		date:     "2026-08-10",
		amount:   "12.50",
		currency: "EUR",
		category: "groceries",
		account:  "checking",
	}
	if status := add.Execute(context.Background(), flag.NewFlagSet("add", flag.ContinueOnError)); status != subcommands.ExitSuccess {
		t.Fatalf("add exited with %v", status)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ledger file not written: %v", err)
	}
	entries, err := kasa.DecodeEntries(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ledger file not decodable: %v", err)
	}
	if len(entries) != 1 || entries[0].Category != "groceries" {
		t.Fatalf("unexpected ledger content: %+v", entries)
	}

	if status := (&fmtCmd{}).Execute(context.Background(), flag.NewFlagSet("fmt", flag.ContinueOnError)); status != subcommands.ExitSuccess {
		t.Fatalf("fmt exited with %v", status)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		cmd  addCmd
	}{
		{"bad kind", addCmd{kind: "withdrawal", date: "2026-08-10", amount: "5"}},
		{"bad date", addCmd{kind: "expense", date: "someday", amount: "5"}},
		{"bad amount", addCmd{kind: "expense", date: "2026-08-10", amount: "a lot"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status := tc.cmd.Execute(context.Background(), flag.NewFlagSet("add", flag.ContinueOnError))
			if status != subcommands.ExitUsageError {
				t.Errorf("Execute = %v, want ExitUsageError", status)
			}
		})
	}
}
