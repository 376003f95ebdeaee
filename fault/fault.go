// Package fault turns raw failures into a closed taxonomy, keeps a bounded
// log of error records, and drives a backed-off retry queue for failures
// worth attempting again.
package fault

import "fmt"

// Kind classifies a failure.
type Kind int

const (
	// Validation is a user-input-caused failure, never retryable. It may
	// carry the name of the offending field.
	Validation Kind = iota
	// Storage is a persistence-layer fault; the store decides retryability.
	Storage
	// Business is a domain-rule violation (e.g. "category in use");
	// retrying cannot change the outcome.
	Business
	// Runtime is everything else: network, timeout, unclassified.
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Storage:
		return "storage"
	case Business:
		return "business"
	case Runtime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Fault is implemented by errors that know their own classification.
// The classifier inherits the kind and retryability of such errors instead
// of guessing.
type Fault interface {
	error
	FaultKind() Kind
	FaultRetryable() bool
}

// FieldError is a validation failure attached to a single input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string        { return e.Field + ": " + e.Message }
func (e *FieldError) FaultKind() Kind      { return Validation }
func (e *FieldError) FaultRetryable() bool { return false }

// BusinessError is a domain-rule violation surfaced at the point of action.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string        { return e.Message }
func (e *BusinessError) FaultKind() Kind      { return Business }
func (e *BusinessError) FaultRetryable() bool { return false }

// StatusError is an HTTP-like failure identified by its status code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}
