package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/servertask/internal/api/shared"
	"github.com/phrazzld/servertask/internal/domain"
)

// HandlerFunc is an endpoint that reports its outcome instead of writing it.
// A nil error means status and body are written as JSON; a non-nil error is
// written through HandleAPIError.
type HandlerFunc func(r *http.Request) (status int, body interface{}, err error)

// Handle adapts fn to an http.HandlerFunc.
func Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body, err := fn(r)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondWithJSON(w, r, status, body)
	}
}

// empty is the {} body returned for silent misses and deletions.
var empty = struct{}{}

// getUserID returns the caller identity placed in the context by the
// identity middleware.
func getUserID(r *http.Request) (string, error) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}

// getPathParam extracts a required, non-empty path parameter.
func getPathParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if value == "" {
		return "", domain.NewValidationError(name, "is required", domain.ErrInvalidID)
	}
	return value, nil
}

// decodeAndValidate decodes the JSON body into v and runs its validation tags.
func decodeAndValidate(r *http.Request, v interface{}) error {
	if err := shared.DecodeJSON(r, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if err := shared.ValidateRequest(v); err != nil {
		return sanitizeValidationError(err)
	}
	return nil
}
