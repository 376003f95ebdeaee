package kasa

import (
	"errors"

	"github.com/kasaledger/kasa/fault"
)

// ValidateEntry checks an entry for correctness and applies quick fixes where
// applicable (e.g., defaulting a zero date to today). It returns the validated
// (and potentially modified) entry or an error detailing all validation
// failures, each tagged with the offending field.
func ValidateEntry(e Entry) (Entry, error) {
	var errs error

	if e.Date.IsZero() {
		e.Date = Today()
	}

	switch e.Kind {
	case Expense, Income, Transfer:
	default:
		errs = errors.Join(errs, &fault.FieldError{Field: "kind", Message: "unknown entry kind"})
	}

	if !e.Amount.IsPositive() {
		errs = errors.Join(errs, &fault.FieldError{Field: "amount", Message: "amount must be positive"})
	}
	if e.Account == "" {
		errs = errors.Join(errs, &fault.FieldError{Field: "account", Message: "account is missing"})
	}

	switch e.Kind {
	case Transfer:
		if e.ToAccount == "" {
			errs = errors.Join(errs, &fault.FieldError{Field: "toAccount", Message: "transfer needs a destination account"})
		} else if e.ToAccount == e.Account {
			errs = errors.Join(errs, &fault.FieldError{Field: "toAccount", Message: "transfer accounts must differ"})
		}
	case Expense, Income:
		if e.Category == "" {
			errs = errors.Join(errs, &fault.FieldError{Field: "category", Message: "category is missing"})
		}
	}

	return e, errs
}
