package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or request fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is empty or malformed.
	ErrInvalidID = errors.New("invalid ID")

	// ErrAttachmentUnavailable is returned when an attachment object does not
	// exist or cannot be analyzed (unsupported format, too large).
	ErrAttachmentUnavailable = errors.New("attachment unavailable")

	// ErrUnauthorized is returned when the caller identity cannot be established.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError describes why a single field was rejected.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError. When err is nil the error
// wraps ErrValidation so callers can always match it with errors.Is.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports every ValidationError as an ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
