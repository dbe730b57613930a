package application

import (
	"errors"

	"github.com/example/or-admin/internal/scheduler"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrSchedulingConflict is returned when a surgery would double-book an operating room.
	ErrSchedulingConflict = errors.New("application: scheduling conflict")
	// ErrInvalidTimeRange is returned when a surgery does not end after it starts.
	ErrInvalidTimeRange = scheduler.ErrInvalidTimeRange
	// ErrInvalidTransition is returned when a lifecycle change is not allowed from the current status.
	ErrInvalidTransition = errors.New("application: invalid status transition")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
	cause       error
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// Unwrap exposes the sentinel behind the validation failure, if any.
func (v *ValidationError) Unwrap() error {
	if v == nil {
		return nil
	}
	return v.cause
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
	if v.cause == nil {
		v.cause = other.cause
	}
}

// orNil returns nil when no field errors were recorded so callers can
// return the result directly as an error.
func (v *ValidationError) orNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}
