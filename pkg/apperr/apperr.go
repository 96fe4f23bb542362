// Package apperr defines the failure kinds surfaced by the wardbook core.
// Callers branch on these with errors.Is/errors.As; the HTTP layer maps them
// to status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotInitialized is returned when an operation runs before the store
	// has been opened and migrated.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrDuplicateKey is returned when a create or rename would collide with
	// an existing registration number.
	ErrDuplicateKey = errors.New("duplicate registration number")

	// ErrNotFound is returned by targeted single-row reads that match nothing.
	// Targeted updates and deletes do NOT return it; they report zero affected
	// rows instead.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports an empty or invalid required field. It is always
// raised before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError with a formatted reason.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Duplicate wraps ErrDuplicateKey with the colliding key.
func Duplicate(key string) error {
	return fmt.Errorf("registration number %q: %w", key, ErrDuplicateKey)
}

// StoreError wraps a low-level store failure. Callers are not expected to
// distinguish causes; the wrapped error is kept for logs.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError for operation op. Returns nil when err is
// nil, so repo methods can end with `return apperr.Store("op", err)`.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// HTTPStatus maps a failure to the status code the API layer reports.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
