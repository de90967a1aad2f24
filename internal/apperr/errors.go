// Package apperr defines the error kinds shared across the service.
// Every core operation fails with exactly one of these kinds; callers
// branch with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that an id-keyed operation targeted a missing record.
	ErrNotFound = errors.New("not found")
	// ErrStore signals a transient remote store failure (network, timeout,
	// server error). Retrying is the caller's decision, never the adapter's.
	ErrStore = errors.New("store unavailable")
	// ErrPermissionDenied signals that the device refused location access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrPositionUnavailable signals that a position fix failed after
	// permission was granted.
	ErrPositionUnavailable = errors.New("position unavailable")
)

// ValidationError reports rejected caller input with a human-readable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Store wraps err so it matches ErrStore while keeping the original chain.
func Store(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}
