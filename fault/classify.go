package fault

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Class is the outcome of classifying a raw failure.
type Class struct {
	Kind      Kind
	Retryable bool
	Field     string // set for field-tagged validation failures
}

// Classify turns a raw failure into its Class. The checks are deterministic
// and the first match wins:
//
//  1. connectivity/transport failure -> runtime, retryable
//  2. timeout                        -> runtime, retryable
//  3. a Fault-aware error            -> inherits its own kind/retryability
//  4. status >= 500 or 429           -> runtime, retryable
//  5. status in [400, 500)           -> validation, not retryable
//  6. anything else                  -> runtime, retryable
func Classify(err error) Class {
	if isConnectivity(err) {
		return Class{Kind: Runtime, Retryable: true}
	}
	if isTimeout(err) {
		return Class{Kind: Runtime, Retryable: true}
	}

	var f Fault
	if errors.As(err, &f) {
		c := Class{Kind: f.FaultKind(), Retryable: f.FaultRetryable()}
		var fe *FieldError
		if errors.As(err, &fe) {
			c.Field = fe.Field
		}
		return c
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code >= 500 || se.Code == 429:
			return Class{Kind: Runtime, Retryable: true}
		case se.Code >= 400:
			return Class{Kind: Validation, Retryable: false}
		}
	}

	return Class{Kind: Runtime, Retryable: true}
}

func isConnectivity(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe) && !oe.Timeout()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
