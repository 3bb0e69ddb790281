package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Role is the access level of an account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Username length bounds, counted in characters after trimming.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	PasswordMinLength = 8
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

	passwordAllowed = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
	passwordLower   = regexp.MustCompile(`[a-z]`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`\d`)
	passwordSpecial = regexp.MustCompile(`[@$!%*?&]`)
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// ParseRole converts s into a Role. An empty string yields RoleUser.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUser, nil
	}
	r := Role(s)
	if !r.IsValid() {
		return "", NewValidationError("userType", "must be one of admin, manager, user", ErrInvalidRole)
	}
	return r, nil
}

// User represents a registered account.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	Role           Role       `json:"userType"`
	UnderManager   *uuid.UUID `json:"underManager,omitempty"`
	Token          string     `json:"token,omitempty"`
	Team           string     `json:"team,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewUser builds a User with normalized username and email and a fresh ID.
// hashedPassword must already be a bcrypt hash.
func NewUser(username, email, hashedPassword string, role Role, underManager *uuid.UUID) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:             uuid.New(),
		Username:       NormalizeUsername(username),
		Email:          NormalizeEmail(email),
		HashedPassword: hashedPassword,
		Role:           role,
		UnderManager:   underManager,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks the invariants every persisted user must satisfy.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if err := ValidateUsername(u.Username); err != nil {
		return err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.HashedPassword == "" {
		return NewValidationError("password", "cannot be empty", ErrInvalidPassword)
	}
	if !u.Role.IsValid() {
		return NewValidationError("userType", "must be one of admin, manager, user", ErrInvalidRole)
	}
	if u.UnderManager != nil && *u.UnderManager == u.ID {
		return NewValidationError("underManager", "cannot reference the user itself", ErrInvalidID)
	}
	return nil
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsManager reports whether the user has the manager role.
func (u *User) IsManager() bool { return u.Role == RoleManager }

// Ref returns the public projection of the user embedded in task listings.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// UserRef is the public view of an account: no hash, no token.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"userType"`
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername enforces the 3 to 30 character bound.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return NewValidationError("username", "must be between 3 and 30 characters", ErrValidation)
	}
	return nil
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateEmail checks email against the accepted address pattern.
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "is required", ErrInvalidEmail)
	}
	if !IsEmail(email) {
		return NewValidationError("email", "must be a valid email", ErrInvalidEmail)
	}
	return nil
}

// ValidatePasswordStrength requires at least 8 characters drawn from letters,
// digits and @$!%*?&, including one of each class.
func ValidatePasswordStrength(password string) error {
	if len(password) < PasswordMinLength {
		return NewValidationError("password", "must be at least 8 characters", ErrInvalidPassword)
	}
	if !passwordAllowed.MatchString(password) ||
		!passwordLower.MatchString(password) ||
		!passwordUpper.MatchString(password) ||
		!passwordDigit.MatchString(password) ||
		!passwordSpecial.MatchString(password) {
		return NewValidationError(
			"password",
			"must include upper and lower case letters, a digit and one of @$!%*?&",
			ErrInvalidPassword,
		)
	}
	return nil
}
