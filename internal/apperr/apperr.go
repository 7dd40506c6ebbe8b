// Package apperr carries the error taxonomy shared by storage, engine and
// handlers. Handlers map these sentinels to HTTP status codes; callers can
// rely on errors.Is across wrapping.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is malformed or out-of-range input, caught before any
	// mutation.
	ErrValidation = errors.New("validation error")
	// ErrForbidden is an authenticated caller without authority over the
	// resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is a state-machine precondition violation or a held
	// uniqueness. Clients should re-read state before retrying.
	ErrConflict = errors.New("conflict")
	// ErrOperationFailed is an unexpected storage or transaction failure;
	// the whole operation was rolled back.
	ErrOperationFailed = errors.New("operation failed")
)

// Validation builds a stable, user-readable validation error.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Forbidden builds a stable forbidden error.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// NotFound builds a stable not-found error.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflict builds a stable conflict error.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// OperationFailed wraps an unexpected underlying failure, keeping the cause
// attached for diagnostics.
func OperationFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrOperationFailed, err)
}
