// Package faults defines the error taxonomy shared across the service:
// validation failures caught before any remote call, transport failures from
// remote collaborators, and the not-found sentinel for lookups where absence
// is exceptional. Absence of a normative override is NOT an error anywhere in
// this codebase; it is a normal, representable state.
package faults

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups of resources that must exist (projects, uploads,
// reports). Repositories translate pgx.ErrNoRows into nil results; handlers
// use this sentinel when a nil result is a client error.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed local input. It is surfaced at the point
// of input and never sent over the wire.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for a named field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransportError reports a failed or unreachable remote call. Read-only
// operations degrade to a safe default on this error; write operations
// preserve the caller's unsaved state and surface it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport wraps err as a TransportError for the named operation.
func Transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
