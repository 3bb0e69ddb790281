package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/mocks"
	"github.com/tasksync/tasksync-api/internal/platform/memory"
	"github.com/tasksync/tasksync-api/internal/service"
	"github.com/tasksync/tasksync-api/internal/service/auth"
	"github.com/tasksync/tasksync-api/internal/store"
)

const strongPassword = "Passw0rd!"

// recordingNotifier captures account and task events.
type recordingNotifier struct {
	created    []*domain.User
	logins     []*domain.User
	tasks      []*domain.Task
	reassigned []*domain.Task
}

func (n *recordingNotifier) AccountCreated(user *domain.User) { n.created = append(n.created, user) }
func (n *recordingNotifier) LoginSucceeded(user *domain.User) { n.logins = append(n.logins, user) }
func (n *recordingNotifier) TaskCreated(task *domain.Task)    { n.tasks = append(n.tasks, task) }
func (n *recordingNotifier) TaskReassigned(task *domain.Task) {
	n.reassigned = append(n.reassigned, task)
}

type userFixture struct {
	users    *mocks.TestifyMockUserStore
	revoked  *mocks.MockRevocationStore
	jwt      *mocks.MockJWTService
	verifier *mocks.MockPasswordVerifier
	notifier *recordingNotifier
	svc      *service.UserServiceImpl
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	f := &userFixture{
		users:    new(mocks.TestifyMockUserStore),
		revoked:  mocks.NewMockRevocationStore(),
		jwt:      &mocks.MockJWTService{Token: "signed-token"},
		verifier: &mocks.MockPasswordVerifier{ShouldSucceed: true},
		notifier: &recordingNotifier{},
	}
	f.svc = service.NewUserService(service.UserServiceDeps{
		Users:    f.users,
		Revoked:  f.revoked,
		JWT:      f.jwt,
		Hasher:   f.verifier,
		Verifier: f.verifier,
		Notifier: f.notifier,
	}, nil)
	return f
}

func makeUser(role domain.Role) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:             uuid.New(),
		Username:       "user-" + string(role),
		Email:          string(role) + "@example.com",
		HashedPassword: "hashed:" + strongPassword,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestNewUserService_PanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() { service.NewUserService(service.UserServiceDeps{}, nil) })
}

func TestUserService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with default role", func(t *testing.T) {
		f := newUserFixture(t)
		f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "alice" &&
				u.Email == "alice@example.com" &&
				u.HashedPassword == "hashed:"+strongPassword &&
				u.Role == domain.RoleUser
		})).Return(nil)

		user, err := f.svc.Signup(ctx, service.SignupInput{
			Username: "alice",
			Email:    "Alice@Example.com",
			Password: strongPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		require.Len(t, f.notifier.created, 1)
		assert.Same(t, user, f.notifier.created[0])
		f.users.AssertExpectations(t)
	})

	t.Run("weak password is rejected before any lookup", func(t *testing.T) {
		f := newUserFixture(t)

		_, err := f.svc.Signup(ctx, service.SignupInput{Username: "alice", Email: "a@example.com", Password: "password"})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrInvalidPassword)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.notifier.created)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newUserFixture(t)

		_, err := f.svc.Signup(ctx, service.SignupInput{Username: "alice", Email: "alice@", Password: strongPassword})
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newUserFixture(t)
		f.users.On("Create", mock.Anything, mock.Anything).Return(store.ErrEmailExists)

		_, err := f.svc.Signup(ctx, service.SignupInput{Username: "alice", Email: "a@example.com", Password: strongPassword})
		assert.ErrorIs(t, err, store.ErrEmailExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.Empty(t, f.notifier.created)
	})

	t.Run("under an existing manager", func(t *testing.T) {
		f := newUserFixture(t)
		manager := makeUser(domain.RoleManager)
		f.users.On("GetByID", mock.Anything, manager.ID).Return(manager, nil)
		f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.UnderManager != nil && *u.UnderManager == manager.ID
		})).Return(nil)

		_, err := f.svc.Signup(ctx, service.SignupInput{
			Username:     "bob",
			Email:        "bob@example.com",
			Password:     strongPassword,
			UnderManager: &manager.ID,
		})
		require.NoError(t, err)
		f.users.AssertExpectations(t)
	})

	managerTests := []struct {
		name     string
		returned *domain.User
		err      error
	}{
		{name: "manager not found", err: store.ErrUserNotFound},
		{name: "referenced account is not a manager", returned: makeUser(domain.RoleUser)},
	}
	for _, tt := range managerTests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture(t)
			id := uuid.New()
			f.users.On("GetByID", mock.Anything, id).Return(tt.returned, tt.err)

			_, err := f.svc.Signup(ctx, service.SignupInput{
				Username:     "bob",
				Email:        "bob@example.com",
				Password:     strongPassword,
				UnderManager: &id,
			})
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorIs(t, err, service.ErrUnknownManager)
			f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("store failure is wrapped", func(t *testing.T) {
		f := newUserFixture(t)
		dbErr := store.NewStoreError("user", "create", "insert failed", errors.New("connection reset"))
		f.users.On("Create", mock.Anything, mock.Anything).Return(dbErr)

		_, err := f.svc.Signup(ctx, service.SignupInput{Username: "alice", Email: "a@example.com", Password: strongPassword})
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, domain.ErrValidation)
	})
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues and stores token", func(t *testing.T) {
		f := newUserFixture(t)
		user := makeUser(domain.RoleUser)
		f.users.On("GetByIdentifier", mock.Anything, "user@example.com").Return(user, nil)
		f.users.On("SetToken", mock.Anything, user.ID, "signed-token").Return(nil)

		got, err := f.svc.Login(ctx, "user@example.com", strongPassword)
		require.NoError(t, err)
		assert.Equal(t, "signed-token", got.Token)
		assert.Equal(t, strongPassword, f.verifier.CompareCalledWith.Password)
		assert.Len(t, f.notifier.logins, 1)
		f.users.AssertExpectations(t)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		f := newUserFixture(t)
		f.users.On("GetByIdentifier", mock.Anything, "ghost").Return(nil, store.ErrUserNotFound)

		_, err := f.svc.Login(ctx, "ghost", strongPassword)
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)

		// The password is still compared so both paths cost one hash check.
		assert.Equal(t, 1, f.verifier.CompareCallCount)
		assert.Equal(t, strongPassword, f.verifier.CompareCalledWith.Password)
		assert.True(t, strings.HasPrefix(f.verifier.CompareCalledWith.HashedPassword, "hashed:"))
		assert.NotEqual(t, "hashed:"+strongPassword, f.verifier.CompareCalledWith.HashedPassword)
		assert.Empty(t, f.notifier.logins)
	})

	t.Run("unknown identifier reuses the dummy hash", func(t *testing.T) {
		f := newUserFixture(t)
		f.users.On("GetByIdentifier", mock.Anything, mock.Anything).Return(nil, store.ErrUserNotFound)

		_, _ = f.svc.Login(ctx, "ghost", strongPassword)
		first := f.verifier.CompareCalledWith.HashedPassword
		_, _ = f.svc.Login(ctx, "phantom", strongPassword)

		assert.Equal(t, 2, f.verifier.CompareCallCount)
		assert.Equal(t, first, f.verifier.CompareCalledWith.HashedPassword)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newUserFixture(t)
		f.verifier.ShouldSucceed = false
		user := makeUser(domain.RoleUser)
		f.users.On("GetByIdentifier", mock.Anything, user.Username).Return(user, nil)

		_, err := f.svc.Login(ctx, user.Username, "Wr0ng!pass")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
		f.users.AssertNotCalled(t, "SetToken", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.notifier.logins)
	})

	t.Run("token generation failure", func(t *testing.T) {
		f := newUserFixture(t)
		f.jwt.Err = errors.New("signing failed")
		user := makeUser(domain.RoleUser)
		f.users.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil)

		_, err := f.svc.Login(ctx, user.Email, strongPassword)
		require.Error(t, err)
		assert.NotErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestUserService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes token and clears stored session", func(t *testing.T) {
		f := newUserFixture(t)
		user := makeUser(domain.RoleUser)
		user.Token = "session-token"
		f.users.On("SetToken", mock.Anything, user.ID, "").Return(nil)

		claims := mocks.ClaimsFor(user, time.Hour)
		require.NoError(t, f.svc.Logout(ctx, user, "session-token", claims))

		ttl, ok := f.revoked.Revoked[store.TokenKey("session-token")]
		require.True(t, ok)
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
		assert.Empty(t, user.Token)
		f.users.AssertExpectations(t)
	})

	t.Run("older token leaves stored session alone", func(t *testing.T) {
		f := newUserFixture(t)
		user := makeUser(domain.RoleUser)
		user.Token = "newer-token"

		require.NoError(t, f.svc.Logout(ctx, user, "older-token", mocks.ClaimsFor(user, time.Hour)))
		assert.Contains(t, f.revoked.Revoked, store.TokenKey("older-token"))
		assert.Equal(t, "newer-token", user.Token)
		f.users.AssertNotCalled(t, "SetToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("revocation failure is returned", func(t *testing.T) {
		f := newUserFixture(t)
		f.revoked.RevokeFn = func(context.Context, string, time.Duration) error {
			return errors.New("redis unavailable")
		}
		user := makeUser(domain.RoleUser)

		err := f.svc.Logout(ctx, user, "tok", mocks.ClaimsFor(user, time.Hour))
		assert.Error(t, err)
	})

	t.Run("no token is a no-op", func(t *testing.T) {
		f := newUserFixture(t)
		assert.NoError(t, f.svc.Logout(ctx, nil, "", nil))
		assert.Empty(t, f.revoked.Revoked)
	})

	t.Run("missing claims are recovered from the token", func(t *testing.T) {
		f := newUserFixture(t)
		user := makeUser(domain.RoleUser)
		f.jwt.Claims = mocks.ClaimsFor(user, time.Hour)

		require.NoError(t, f.svc.Logout(ctx, user, "bare-token", nil))
		ttl, ok := f.revoked.Revoked[store.TokenKey("bare-token")]
		require.True(t, ok)
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
	})

	t.Run("token that does not validate is not stored", func(t *testing.T) {
		f := newUserFixture(t)
		f.jwt.ValidateErr = auth.ErrInvalidToken

		assert.NoError(t, f.svc.Logout(ctx, nil, "garbage", nil))
		assert.Empty(t, f.revoked.Revoked)
	})

	t.Run("revocation never shorter than the minimum", func(t *testing.T) {
		f := newUserFixture(t)
		user := makeUser(domain.RoleUser)
		claims := mocks.ClaimsFor(user, -30*time.Second)
		claims.Leeway = time.Minute

		require.NoError(t, f.svc.Logout(ctx, user, "late-token", claims))
		assert.Equal(t, time.Minute, f.revoked.Revoked[store.TokenKey("late-token")])
	})
}

// clockedUserService wires the real JWT service and in-memory revocation
// list to a shared controllable clock.
type clockedUserService struct {
	now   time.Time
	users *mocks.TestifyMockUserStore
	svc   *service.UserServiceImpl
	user  *domain.User
}

func newClockedUserService(t *testing.T) *clockedUserService {
	t.Helper()
	c := &clockedUserService{
		now:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		users: new(mocks.TestifyMockUserStore),
		user:  makeUser(domain.RoleUser),
	}
	clock := func() time.Time { return c.now }
	verifier := &mocks.MockPasswordVerifier{ShouldSucceed: true}

	c.svc = service.NewUserService(service.UserServiceDeps{
		Users:    c.users,
		Revoked:  memory.NewRevocationStoreWithClock(clock),
		JWT:      auth.NewTestJWTService(t, 2*time.Hour, clock),
		Hasher:   verifier,
		Verifier: verifier,
		Now:      clock,
	}, nil)

	c.users.On("GetByIdentifier", mock.Anything, c.user.Email).Return(c.user, nil)
	c.users.On("GetByID", mock.Anything, c.user.ID).Return(c.user, nil)
	c.users.On("SetToken", mock.Anything, c.user.ID, mock.Anything).Return(nil)
	return c
}

func (c *clockedUserService) login(t *testing.T) string {
	t.Helper()
	user, err := c.svc.Login(context.Background(), c.user.Email, strongPassword)
	require.NoError(t, err)
	return user.Token
}

func TestUserService_LoggedOutTokenStaysRevokedThroughLeeway(t *testing.T) {
	ctx := context.Background()

	t.Run("logout mid-lifetime", func(t *testing.T) {
		c := newClockedUserService(t)
		start := c.now
		token := c.login(t)

		c.now = start.Add(time.Hour)
		user, claims, err := c.svc.Authenticate(ctx, token)
		require.NoError(t, err)
		require.NoError(t, c.svc.Logout(ctx, user, token, claims))

		_, _, err = c.svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, auth.ErrRevokedToken)

		// Past exp but inside the validator's leeway.
		c.now = start.Add(2*time.Hour + 30*time.Second)
		_, _, err = c.svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, auth.ErrRevokedToken)

		// Once the leeway is spent the token is rejected as expired.
		c.now = start.Add(2*time.Hour + 3*time.Minute)
		_, _, err = c.svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("logout inside the leeway window", func(t *testing.T) {
		c := newClockedUserService(t)
		start := c.now
		token := c.login(t)

		c.now = start.Add(2*time.Hour + 30*time.Second)
		user, claims, err := c.svc.Authenticate(ctx, token)
		require.NoError(t, err)
		require.NoError(t, c.svc.Logout(ctx, user, token, claims))

		_, _, err = c.svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, auth.ErrRevokedToken)

		c.now = start.Add(2*time.Hour + 110*time.Second)
		_, _, err = c.svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, auth.ErrRevokedToken)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	user := makeUser(domain.RoleManager)
	claims := mocks.ClaimsFor(user, time.Hour)

	t.Run("valid token", func(t *testing.T) {
		f := newUserFixture(t)
		f.jwt.Claims = claims
		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		gotUser, gotClaims, err := f.svc.Authenticate(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, user.ID, gotUser.ID)
		assert.Same(t, claims, gotClaims)
	})

	tests := []struct {
		name    string
		token   string
		setup   func(f *userFixture)
		wantErr error
	}{
		{
			name:    "missing token",
			token:   "",
			setup:   func(*userFixture) {},
			wantErr: auth.ErrMissingToken,
		},
		{
			name:  "revoked token",
			token: "tok",
			setup: func(f *userFixture) {
				require.NoError(t, f.revoked.Revoke(ctx, store.TokenKey("tok"), time.Hour))
			},
			wantErr: auth.ErrRevokedToken,
		},
		{
			name:  "expired token",
			token: "tok",
			setup: func(f *userFixture) {
				f.jwt.ValidateErr = auth.ErrExpiredToken
			},
			wantErr: auth.ErrExpiredToken,
		},
		{
			name:  "user deleted",
			token: "tok",
			setup: func(f *userFixture) {
				f.jwt.Claims = claims
				f.users.On("GetByID", mock.Anything, user.ID).Return(nil, store.ErrUserNotFound)
			},
			wantErr: auth.ErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture(t)
			tt.setup(f)

			gotUser, _, err := f.svc.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, gotUser)
		})
	}

	t.Run("revocation lookup failure", func(t *testing.T) {
		f := newUserFixture(t)
		f.revoked.IsRevokedFn = func(context.Context, string) (bool, error) {
			return false, errors.New("redis down")
		}

		_, _, err := f.svc.Authenticate(ctx, "tok")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestUserService_Listings(t *testing.T) {
	ctx := context.Background()
	manager := makeUser(domain.RoleManager)
	member := makeUser(domain.RoleUser)
	member.UnderManager = &manager.ID
	member.Token = "secret"

	f := newUserFixture(t)
	f.users.On("ListByRole", mock.Anything, domain.RoleUser).Return([]*domain.User{member}, nil)
	f.users.On("ListByRole", mock.Anything, domain.RoleManager).Return([]*domain.User{manager}, nil)
	f.users.On("ListByManager", mock.Anything, manager.ID).Return([]*domain.User{}, nil)

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.UserRef{ID: member.ID, Username: member.Username, Email: member.Email, Role: domain.RoleUser}, users[0])

	managers, err := f.svc.ListManagers(ctx)
	require.NoError(t, err)
	assert.Len(t, managers, 1)

	managed, err := f.svc.ListManagedUsers(ctx, manager.ID)
	require.NoError(t, err)
	assert.NotNil(t, managed)
	assert.Empty(t, managed)

	f2 := newUserFixture(t)
	f2.users.On("ListByRole", mock.Anything, domain.RoleUser).Return(nil, errors.New("boom"))
	_, err = f2.svc.ListUsers(ctx)
	assert.Error(t, err)
}
