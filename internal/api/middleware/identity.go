package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/servertask/internal/api/shared"
	"github.com/phrazzld/servertask/internal/platform/logger"
	"github.com/phrazzld/servertask/internal/service/auth"
)

// IdentityMiddleware resolves the caller identity once per request and
// stores it in the request context.
type IdentityMiddleware struct {
	defaultUserID string
	jwtService    auth.JWTService
}

// NewStaticIdentity returns an IdentityMiddleware that attributes every
// request to userID.
func NewStaticIdentity(userID string) *IdentityMiddleware {
	return &IdentityMiddleware{defaultUserID: userID}
}

// NewJWTIdentity returns an IdentityMiddleware that takes the identity from
// the subject of a bearer token validated by jwtService.
func NewJWTIdentity(jwtService auth.JWTService) *IdentityMiddleware {
	return &IdentityMiddleware{jwtService: jwtService}
}

// Resolve stores the caller identity in the request context, or answers 401
// when a token is required and cannot be validated.
func (m *IdentityMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.jwtService == nil {
			next.ServeHTTP(w, r.WithContext(shared.WithUserID(r.Context(), m.defaultUserID)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrMissingSubject),
				errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Internal server error", err)
			}
			return
		}

		logger.FromContext(r.Context()).Debug("identity resolved", slog.String("user_id", claims.UserID))

		next.ServeHTTP(w, r.WithContext(shared.WithUserID(r.Context(), claims.UserID)))
	})
}
