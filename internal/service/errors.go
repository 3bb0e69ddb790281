package service

import (
	"errors"
	"fmt"

	"github.com/tasksync/tasksync-api/internal/domain"
)

var (
	// ErrInvalidCredentials is returned by Login when no account matches the
	// identifier or the password is wrong. The two cases are not
	// distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownManager is returned by Signup when underManager does not
	// reference a manager account.
	ErrUnknownManager = domain.NewValidationError("underManager", "must reference an existing manager", domain.ErrInvalidID)

	// ErrUnknownAssignee is returned when a task is assigned to a user that
	// does not exist.
	ErrUnknownAssignee = domain.NewValidationError("assignedTo", "must reference an existing user", domain.ErrInvalidID)
)

// forbidden builds the error returned when user may not perform action.
func forbidden(action domain.Action) error {
	return fmt.Errorf("%w: not allowed to %s this task", domain.ErrForbidden, action)
}
