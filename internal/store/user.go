package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user.
	// Returns ErrUsernameExists or ErrEmailExists on a uniqueness violation,
	// and ErrUnknownReference if UnderManager does not exist.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByIdentifier retrieves the user whose email or username equals
	// identifier. Emails are compared case-insensitively.
	// Returns ErrUserNotFound if no user matches.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// SetToken stores the current session token for a user. An empty token
	// clears it. Returns ErrUserNotFound if the user does not exist.
	SetToken(ctx context.Context, id uuid.UUID, token string) error

	// ListByRole returns users with the given role ordered by username.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// ListByManager returns role=user accounts whose manager is managerID.
	ListByManager(ctx context.Context, managerID uuid.UUID) ([]*domain.User, error)
}
