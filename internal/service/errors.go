package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// The API layer maps these to HTTP status codes.
var (
	// ErrTaskNotFound indicates that no task exists for the owner and identifier.
	// API layer maps this to 404, or to an empty 200 body for plain reads.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskExists indicates that a generated identifier collided with an
	// existing task. The existing task is left untouched.
	// API layer should map this to HTTP 409 Conflict.
	ErrTaskExists = errors.New("task already exists")
)

// ServiceError wraps unexpected failures with the service and operation that
// hit them.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError classifies err. Known conditions are returned as the
// matching sentinel (or unchanged for domain errors); everything else is
// wrapped in a ServiceError.
func NewServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, ErrTaskExists), errors.Is(err, store.ErrTaskExists):
		return ErrTaskExists
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrAttachmentUnavailable):
		return err
	}

	return &ServiceError{Service: service, Op: op, Err: err}
}
