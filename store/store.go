// Package store provides the persistence repositories backing the tracker:
// an append-oriented JSONL file store and a SQLite store. Every failure they
// raise is a typed *Error carrying its own fault kind and retryability, which
// the fault classifier inherits as-is.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/fault"
)

// ErrNotFound is returned when a requested entry does not exist.
var ErrNotFound = errors.New("entry not found")

// Error is the typed failure raised by every repository operation.
type Error struct {
	Message   string
	Kind      fault.Kind
	Retryable bool
	Err       error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// FaultKind and FaultRetryable make *Error a fault.Fault, so the classifier
// inherits the store's own verdict.
func (e *Error) FaultKind() fault.Kind { return e.Kind }
func (e *Error) FaultRetryable() bool  { return e.Retryable }

// storageErr wraps an unexpected persistence failure as retryable.
func storageErr(message string, err error) *Error {
	return &Error{Message: message, Kind: fault.Storage, Retryable: true, Err: err}
}

// notFoundErr marks a missing entry; retrying cannot make it appear.
func notFoundErr(id string) *Error {
	return &Error{Message: fmt.Sprintf("entry %q", id), Kind: fault.Storage, Retryable: false, Err: ErrNotFound}
}

// Filter selects entries from a List call. Zero fields do not constrain.
type Filter struct {
	Account  string
	Category string
	Kind     kasa.Kind
	From, To kasa.Date // inclusive bounds; zero dates leave the range open

	// Expr is an optional JSONPath expression evaluated against the JSON
	// form of each entry (e.g. "$.payee" or `$[?($.amount > 100)]`-less
	// simple selections). An entry matches when the expression yields a
	// non-empty, non-false value.
	Expr string
}

// Matches reports whether the entry satisfies every constraint of the filter.
func (f Filter) Matches(e kasa.Entry) (bool, error) {
	if f.Account != "" && e.Account != f.Account && e.ToAccount != f.Account {
		return false, nil
	}
	if f.Category != "" && e.Category != f.Category {
		return false, nil
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false, nil
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false, nil
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false, nil
	}
	if f.Expr != "" {
		return f.matchExpr(e)
	}
	return true, nil
}

func (f Filter) matchExpr(e kasa.Entry) (bool, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("could not encode entry %q for matching: %w", e.ID, err)
	}
	var jobj any
	if err := json.Unmarshal(raw, &jobj); err != nil {
		return false, err
	}
	jval, err := jsonpath.Get(f.Expr, jobj)
	if err != nil {
		// an unresolvable path simply does not match.
		return false, nil
	}
	switch v := jval.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case []any:
		return len(v) > 0, nil
	default:
		return true, nil
	}
}

// Repository is the persistence collaborator consumed by the data layer.
// Implementations assign the authoritative ID on Create (replacing any
// placeholder) and raise *Error on failure.
type Repository interface {
	Create(ctx context.Context, e kasa.Entry) (kasa.Entry, error)
	Get(ctx context.Context, id string) (kasa.Entry, error)
	Update(ctx context.Context, e kasa.Entry) (kasa.Entry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter) ([]kasa.Entry, error)
	Close() error
}
