// Package errors provides common domain error types for the postmeet service.
//
// This package defines sentinel errors for common domain conditions like
// "not found" plus the remote-failure taxonomy used by the bot polling
// engine: transient failures are safe to retry on the next cycle, terminal
// failures mean the remote resource is gone or invalid and must not be
// retried. Using typed errors enables consistent handling with errors.Is().
//
// Usage:
//
//	import pmerrors "github.com/otherjamesbrown/postmeet/pkg/errors"
//
//	// Classify a remote failure
//	return pmerrors.Transient(fmt.Errorf("status fetch: %w", err))
//
//	// Check classification
//	if pmerrors.IsTransient(err) {
//	    // consume a retry, poll again next cycle
//	}
package errors

import (
	"errors"
	"fmt"
)

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState indicates the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrTransient indicates a remote failure that is safe to retry
	// (network error, timeout, 5xx).
	ErrTransient = errors.New("transient failure")

	// ErrTerminal indicates the remote service reports the resource is gone
	// or invalid; retrying will not help.
	ErrTerminal = errors.New("terminal failure")
)

// Transient wraps err so that IsTransient reports true for it.
// A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Terminal wraps err so that IsTerminal reports true for it.
// A nil err returns nil.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTerminal, err)
}

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsTransient reports whether any error in err's chain is ErrTransient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsTerminal reports whether any error in err's chain is ErrTerminal.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrTerminal)
}
