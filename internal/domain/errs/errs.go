// Package errs defines the two error kinds raised by the domain model.
//
// An InvariantError reports malformed input: an empty name, a non-positive
// quantity, a product of the wrong type for an order, a missing field at
// placement time. A StateError reports lifecycle misuse, such as paying for an
// order that was never placed. Both carry a fixed, human-readable message that
// is returned verbatim by Error, so callers can match on it.
//
// Use errors.Is with ErrInvariantViolation or ErrStateConflict to classify an
// error without caring about its message.
package errs

import "github.com/go-faster/errors"

var (
	// ErrInvariantViolation is the sentinel every InvariantError unwraps to.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrStateConflict is the sentinel every StateError unwraps to.
	ErrStateConflict = errors.New("state conflict")
)

// InvariantError reports input that breaks a domain invariant.
type InvariantError struct {
	Message string
}

// Invariant returns an InvariantError carrying msg.
func Invariant(msg string) error {
	return &InvariantError{Message: msg}
}

func (e *InvariantError) Error() string {
	return e.Message
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// StateError reports an operation invoked in the wrong lifecycle state.
type StateError struct {
	Message string
}

// State returns a StateError carrying msg.
func State(msg string) error {
	return &StateError{Message: msg}
}

func (e *StateError) Error() string {
	return e.Message
}

func (e *StateError) Unwrap() error {
	return ErrStateConflict
}

// IsInvariant reports whether err is, or wraps, an invariant violation.
func IsInvariant(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsState reports whether err is, or wraps, a state conflict.
func IsState(err error) bool {
	return errors.Is(err, ErrStateConflict)
}
