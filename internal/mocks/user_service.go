package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/service"
	"github.com/tasksync/tasksync-api/internal/service/auth"
)

// MockUserService implements service.UserService with overridable functions.
// Unset functions return zero values and no error.
type MockUserService struct {
	SignupFn           func(ctx context.Context, in service.SignupInput) (*domain.User, error)
	LoginFn            func(ctx context.Context, identifier, password string) (*domain.User, error)
	LogoutFn           func(ctx context.Context, user *domain.User, token string, claims *auth.Claims) error
	AuthenticateFn     func(ctx context.Context, token string) (*domain.User, *auth.Claims, error)
	ListUsersFn        func(ctx context.Context) ([]domain.UserRef, error)
	ListManagersFn     func(ctx context.Context) ([]domain.UserRef, error)
	ListManagedUsersFn func(ctx context.Context, managerID uuid.UUID) ([]domain.UserRef, error)
}

var _ service.UserService = (*MockUserService)(nil)

// Signup implements service.UserService.
func (m *MockUserService) Signup(ctx context.Context, in service.SignupInput) (*domain.User, error) {
	if m.SignupFn != nil {
		return m.SignupFn(ctx, in)
	}
	return nil, nil
}

// Login implements service.UserService.
func (m *MockUserService) Login(ctx context.Context, identifier, password string) (*domain.User, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, identifier, password)
	}
	return nil, nil
}

// Logout implements service.UserService.
func (m *MockUserService) Logout(ctx context.Context, user *domain.User, token string, claims *auth.Claims) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx, user, token, claims)
	}
	return nil
}

// Authenticate implements service.UserService.
func (m *MockUserService) Authenticate(ctx context.Context, token string) (*domain.User, *auth.Claims, error) {
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, token)
	}
	return nil, nil, auth.ErrInvalidToken
}

// ListUsers implements service.UserService.
func (m *MockUserService) ListUsers(ctx context.Context) ([]domain.UserRef, error) {
	if m.ListUsersFn != nil {
		return m.ListUsersFn(ctx)
	}
	return []domain.UserRef{}, nil
}

// ListManagers implements service.UserService.
func (m *MockUserService) ListManagers(ctx context.Context) ([]domain.UserRef, error) {
	if m.ListManagersFn != nil {
		return m.ListManagersFn(ctx)
	}
	return []domain.UserRef{}, nil
}

// ListManagedUsers implements service.UserService.
func (m *MockUserService) ListManagedUsers(ctx context.Context, managerID uuid.UUID) ([]domain.UserRef, error) {
	if m.ListManagedUsersFn != nil {
		return m.ListManagedUsersFn(ctx, managerID)
	}
	return []domain.UserRef{}, nil
}
