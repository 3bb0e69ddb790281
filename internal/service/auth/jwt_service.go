package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/domain"
)

// JWTService defines operations for managing JWT session tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT session token for user.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context, user *domain.User) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims carried by a session token.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// Role and Email are informational; authorization reloads the user.
	Role  domain.Role `json:"role,omitempty"`
	Email string      `json:"email,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`

	// Leeway is the clock skew the validator tolerates past ExpiresAt.
	Leeway time.Duration `json:"-"`
}

// Remaining returns how long the token keeps passing validation after now,
// leeway included.
func (c *Claims) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Add(c.Leeway).Sub(now)
}
