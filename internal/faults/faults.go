// Package faults defines the error taxonomy shared by the tracking engine,
// the storage layer and the transport layers. Callers classify failures with
// errors.Is and map them to HTTP statuses or WebSocket denial frames.
package faults

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or out-of-range input. The caller can
	// correct the data and resubmit.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden marks an authenticated caller acting on a trip they do
	// not own or are not linked to. Never retried automatically.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a missing trip, checkpoint or actor record.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a write against a terminal (completed) session.
	ErrConflict = errors.New("conflict")

	// ErrTransient marks a durable-store failure that is safe to retry
	// with backoff.
	ErrTransient = errors.New("store unavailable")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// Forbiddenf wraps ErrForbidden with a formatted detail message.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrForbidden}, args...)...)
}

// Code returns the short machine-readable code for an error, for use in
// structured API and WebSocket error payloads.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrTransient):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
