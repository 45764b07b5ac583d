// Package auth validates the bearer tokens that identify the caller when the
// service runs with auth.mode=jwt, and mints such tokens for local use.
package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT whose subject is userID.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context, userID string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation
	// fails (expired, invalid signature, missing subject, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated content of a token.
type Claims struct {
	// UserID is the owner identity taken from the "sub" claim.
	UserID string

	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
