package kasa

import (
	"errors"
	"testing"

	"github.com/kasaledger/kasa/fault"
)

// fieldsOf collects the offending field names from a validation error.
func fieldsOf(err error) []string {
	var fields []string
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var fe *fault.FieldError
		if errors.As(err, &fe) {
			fields = append(fields, fe.Field)
		}
	}
	walk(err)
	return fields
}

func TestValidateEntry(t *testing.T) {
	valid := NewExpense(MustParseDate("2026-08-10"), M(12.5, "EUR"), "groceries", "checking")

	tests := []struct {
		name       string
		entry      Entry
		wantFields []string
	}{
		{"valid expense", valid, nil},
		{"valid transfer", NewTransfer(MustParseDate("2026-08-10"), M(100, "EUR"), "checking", "savings"), nil},
		{"unknown kind", Entry{Kind: "withdrawal", Date: MustParseDate("2026-08-10"), Amount: M(5, "EUR"), Account: "a", Category: "c"}, []string{"kind"}},
		{"zero amount", NewExpense(MustParseDate("2026-08-10"), M(0, "EUR"), "groceries", "checking"), []string{"amount"}},
		{"negative amount", NewExpense(MustParseDate("2026-08-10"), M(-5, "EUR"), "groceries", "checking"), []string{"amount"}},
		{"missing account", NewExpense(MustParseDate("2026-08-10"), M(5, "EUR"), "groceries", ""), []string{"account"}},
		{"missing category", NewExpense(MustParseDate("2026-08-10"), M(5, "EUR"), "", "checking"), []string{"category"}},
		{"transfer without destination", NewTransfer(MustParseDate("2026-08-10"), M(5, "EUR"), "checking", ""), []string{"toAccount"}},
		{"transfer to itself", NewTransfer(MustParseDate("2026-08-10"), M(5, "EUR"), "checking", "checking"), []string{"toAccount"}},
		{"several failures at once", Entry{Kind: Expense}, []string{"amount", "account", "category"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateEntry(tc.entry)
			got := fieldsOf(err)
			if len(got) != len(tc.wantFields) {
				t.Fatalf("fields = %v, want %v (err: %v)", got, tc.wantFields, err)
			}
			for i := range tc.wantFields {
				if got[i] != tc.wantFields[i] {
					t.Errorf("fields = %v, want %v", got, tc.wantFields)
				}
			}
		})
	}
}

func TestValidateEntry_DefaultsZeroDate(t *testing.T) {
	e := NewExpense(Date{}, M(5, "EUR"), "coffee", "card")
	fixed, err := ValidateEntry(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fixed.Date.IsZero() {
		t.Error("zero date should have been defaulted to today")
	}
	if fixed.Date != Today() {
		t.Errorf("Date = %v, want today", fixed.Date)
	}
}
