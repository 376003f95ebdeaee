package kasa

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeEntry writes a single entry as one JSONL line.
func EncodeEntry(w io.Writer, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("could not encode entry %q: %w", e.ID, err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("could not write entry %q: %w", e.ID, err)
	}
	return nil
}

// EncodeEntries writes all entries in canonical (chronological) order, one
// JSONL line per entry.
func EncodeEntries(w io.Writer, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	SortEntries(sorted)
	for _, e := range sorted {
		if err := EncodeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

// DecodeEntries decodes entries from a stream of JSONL data and returns them
// sorted chronologically.
func DecodeEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("could not decode ledger line %q: %w", string(line), err)
		}
		if e.Kind != Expense && e.Kind != Income && e.Kind != Transfer {
			return nil, fmt.Errorf("unknown entry kind %q in line %q", e.Kind, string(line))
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read ledger: %w", err)
	}
	SortEntries(entries)
	return entries, nil
}
