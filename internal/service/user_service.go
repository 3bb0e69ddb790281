package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"github.com/tasksync/tasksync-api/internal/redact"
	"github.com/tasksync/tasksync-api/internal/service/auth"
	"github.com/tasksync/tasksync-api/internal/store"
)

// AccountNotifier receives account events. Implementations must not block.
type AccountNotifier interface {
	AccountCreated(user *domain.User)
	LoginSucceeded(user *domain.User)
}

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Username     string
	Email        string
	Password     string
	Role         domain.Role
	UnderManager *uuid.UUID
}

// UserService provides account and session operations.
type UserService interface {
	// Signup creates an account. Returns a ValidationError for bad input and
	// store.ErrUsernameExists or store.ErrEmailExists on conflicts.
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)

	// Login checks credentials and issues a session token. The returned user
	// carries the token.
	Login(ctx context.Context, identifier, password string) (*domain.User, error)

	// Logout revokes token for the rest of its validity.
	Logout(ctx context.Context, user *domain.User, token string, claims *auth.Claims) error

	// Authenticate resolves a bearer token to its user and claims.
	Authenticate(ctx context.Context, token string) (*domain.User, *auth.Claims, error)

	// ListUsers returns every account with the user role.
	ListUsers(ctx context.Context) ([]domain.UserRef, error)

	// ListManagers returns every account with the manager role.
	ListManagers(ctx context.Context) ([]domain.UserRef, error)

	// ListManagedUsers returns the users whose manager is managerID.
	ListManagedUsers(ctx context.Context, managerID uuid.UUID) ([]domain.UserRef, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users    store.UserStore
	revoked  store.RevocationStore
	jwt      auth.JWTService
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	notifier AccountNotifier
	now      func() time.Time
	logger   *slog.Logger

	dummyHashOnce sync.Once
	dummyHash     string
}

// UserServiceDeps groups the collaborators of UserServiceImpl.
type UserServiceDeps struct {
	Users    store.UserStore
	Revoked  store.RevocationStore
	JWT      auth.JWTService
	Hasher   auth.PasswordHasher
	Verifier auth.PasswordVerifier
	Notifier AccountNotifier

	// Now overrides the clock used for revocation lifetimes.
	Now func() time.Time
}

// minRevocationTTL bounds how briefly a logged-out token stays revoked, so
// a token validated just before its leeway ran out is still rejected.
const minRevocationTTL = time.Minute

// NewUserService creates a new UserService. Notifier may be nil.
func NewUserService(deps UserServiceDeps, logger *slog.Logger) *UserServiceImpl {
	if deps.Users == nil || deps.Revoked == nil || deps.JWT == nil || deps.Hasher == nil || deps.Verifier == nil {
		panic("user service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &UserServiceImpl{
		users:    deps.Users,
		revoked:  deps.Revoked,
		jwt:      deps.JWT,
		hasher:   deps.Hasher,
		verifier: deps.Verifier,
		notifier: deps.Notifier,
		now:      now,
		logger:   logger.With(slog.String("component", "user_service")),
	}
}

var _ UserService = (*UserServiceImpl)(nil)

// Signup implements UserService.Signup
func (s *UserServiceImpl) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidatePasswordStrength(in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	if in.UnderManager != nil {
		manager, err := s.users.GetByID(ctx, *in.UnderManager)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return nil, ErrUnknownManager
			}
			return nil, fmt.Errorf("failed to look up manager: %w", err)
		}
		if !manager.IsManager() {
			return nil, ErrUnknownManager
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err := domain.NewUser(in.Username, in.Email, hash, role, in.UnderManager)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUnknownReference) {
			// The manager was deleted between the lookup and the insert.
			return nil, ErrUnknownManager
		}
		if store.IsDuplicateError(err) {
			log.Debug("signup rejected as duplicate", slog.String("error", err.Error()))
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user signed up",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))

	if s.notifier != nil {
		s.notifier.AccountCreated(user)
	}
	return user, nil
}

// Login implements UserService.Login
func (s *UserServiceImpl) Login(ctx context.Context, identifier, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Pay for a comparison anyway so timing does not reveal which
			// identifiers exist.
			_ = s.verifier.Compare(s.unknownUserHash(), password)
			log.Debug("login for unknown identifier")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login password mismatch", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	if err := s.users.SetToken(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}
	user.Token = token

	log.Info("user logged in", slog.String("user_id", user.ID.String()))

	if s.notifier != nil {
		s.notifier.LoginSucceeded(user)
	}
	return user, nil
}

// Logout implements UserService.Logout
// The stored session token is only cleared when it is the one being revoked,
// so logging out an older token leaves a newer session intact.
func (s *UserServiceImpl) Logout(ctx context.Context, user *domain.User, token string, claims *auth.Claims) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if token == "" {
		return nil
	}

	if claims == nil {
		validated, err := s.jwt.ValidateToken(ctx, token)
		if err != nil || validated == nil {
			// A token that no longer validates cannot authenticate anyway.
			log.Debug("logout with a token that does not validate")
			return nil
		}
		claims = validated
	}

	ttl := claims.Remaining(s.now())
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}
	if err := s.revoked.Revoke(ctx, store.TokenKey(token), ttl); err != nil {
		log.Error("failed to revoke token", slog.String("error", redact.Error(err)))
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if user != nil && user.Token == token {
		if err := s.users.SetToken(ctx, user.ID, ""); err != nil && !errors.Is(err, store.ErrUserNotFound) {
			log.Warn("failed to clear session token", slog.String("error", redact.Error(err)))
		}
		user.Token = ""
	}

	log.Info("user logged out", slog.String("user_id", userID(user)))
	return nil
}

// unknownUserHash returns a hash produced by the configured hasher, so the
// comparison against it costs the same as one against a real account.
func (s *UserServiceImpl) unknownUserHash() string {
	s.dummyHashOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("failed to prepare dummy password hash", slog.String("error", redact.Error(err)))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Authenticate implements UserService.Authenticate
func (s *UserServiceImpl) Authenticate(ctx context.Context, token string) (*domain.User, *auth.Claims, error) {
	if token == "" {
		return nil, nil, auth.ErrMissingToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, store.TokenKey(token))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, nil, auth.ErrRevokedToken
	}

	claims, err := s.jwt.ValidateToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("%w: user no longer exists", auth.ErrInvalidToken)
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, claims, nil
}

// ListUsers implements UserService.ListUsers
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]domain.UserRef, error) {
	users, err := s.users.ListByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return refs(users), nil
}

// ListManagers implements UserService.ListManagers
func (s *UserServiceImpl) ListManagers(ctx context.Context) ([]domain.UserRef, error) {
	users, err := s.users.ListByRole(ctx, domain.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	return refs(users), nil
}

// ListManagedUsers implements UserService.ListManagedUsers
func (s *UserServiceImpl) ListManagedUsers(ctx context.Context, managerID uuid.UUID) ([]domain.UserRef, error) {
	users, err := s.users.ListByManager(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed users: %w", err)
	}
	return refs(users), nil
}

func refs(users []*domain.User) []domain.UserRef {
	out := make([]domain.UserRef, 0, len(users))
	for _, u := range users {
		out = append(out, u.Ref())
	}
	return out
}

func userID(user *domain.User) string {
	if user == nil {
		return ""
	}
	return user.ID.String()
}
