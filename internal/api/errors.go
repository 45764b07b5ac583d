package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/servertask/internal/api/shared"
	"github.com/phrazzld/servertask/internal/domain"
	"github.com/phrazzld/servertask/internal/service"
	"github.com/phrazzld/servertask/internal/service/auth"
	"github.com/phrazzld/servertask/internal/store"
)

// ErrMalformedRequest is returned when a request body is not valid JSON for
// the target payload.
var ErrMalformedRequest = errors.New("malformed request body")

// MapErrorToStatusCode maps internal errors to HTTP status codes. It is the
// only place where error kinds are translated to statuses.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrAttachmentUnavailable),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, ErrMalformedRequest):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrTaskExists),
		errors.Is(err, store.ErrTaskExists):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "Internal server error"
	}

	switch {
	case errors.Is(err, ErrMalformedRequest):
		return "Invalid request format"
	case errors.Is(err, domain.ErrAttachmentUnavailable):
		return "Image could not be analyzed"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Unauthorized"
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, service.ErrTaskExists),
		errors.Is(err, store.ErrTaskExists):
		return "Task already exists"
	default:
		return "Internal server error"
	}
}

// HandleAPIError writes the error envelope for err and logs it once.
// Not-found and unauthenticated responses carry only a message; every other
// failure also carries the error text.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	switch status {
	case http.StatusNotFound, http.StatusUnauthorized:
		shared.RespondWithError(w, r, status, message)
	case http.StatusConflict:
		// An id collision on create should not happen with generated ids.
		shared.RespondWithErrorAndLog(w, r, status, message, err, shared.WithElevatedLogLevel())
	default:
		shared.RespondWithErrorAndLog(w, r, status, message, err)
	}
}

// sanitizeValidationError converts validator failures into a domain
// validation error naming the first offending field. Other errors are
// returned unchanged.
func sanitizeValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	return domain.NewValidationError(fe.Field(), getValidationTagMessage(fe.Tag()), domain.ErrValidation)
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	case "oneof":
		return "has an invalid value"
	default:
		return fmt.Sprintf("failed the %s check", tag)
	}
}
