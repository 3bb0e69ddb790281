package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/domain"
)

// SignupRequest defines the payload for the signup endpoint.
type SignupRequest struct {
	Username     string `json:"username"     validate:"required,min=3,max=30"`
	Email        string `json:"email"        validate:"required,emailaddr"`
	Password     string `json:"password"     validate:"required,password"`
	UserType     string `json:"userType"     validate:"omitempty,oneof=admin manager user"`
	UnderManager string `json:"underManager" validate:"omitempty,uuid"`
}

// SignupResponse is returned after a successful signup.
type SignupResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// LoginRequest defines the payload for the login endpoint. Identifier is an
// email address or a username.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,identifier"`
	Password   string `json:"password"   validate:"required"`
}

// LoginResponse wraps the logged-in user, including the session token.
type LoginResponse struct {
	Status string       `json:"status"`
	Data   *domain.User `json:"data"`
}

// ProfileResponse is the caller's own account.
type ProfileResponse struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	UserType domain.Role `json:"userType"`
	Team     string      `json:"team"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description" validate:"required"`
	DueDate     *Date  `json:"dueDate"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	AssignedTo  string `json:"assignedTo"  validate:"omitempty,uuid"`
}

// UpdateTaskRequest is a merge-patch of a task. Absent fields are left
// unchanged; dueDate and assignedTo may be null to clear them.
type UpdateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *string          `json:"status"      validate:"omitempty,oneof=Todo In-Progress Done"`
	Priority    *string          `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	DueDate     Nullable[Date]   `json:"dueDate"     validate:"-"`
	AssignedTo  Nullable[string] `json:"assignedTo"  validate:"-"`
}

// StatusRequest sets a task's status. An empty status means Todo.
type StatusRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=Todo In-Progress Done"`
}

// PriorityRequest sets a task's priority. An empty priority means Medium.
type PriorityRequest struct {
	Priority string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
}

// AssignRequest sets or clears a task's assignee. Null, absent or empty
// clears it.
type AssignRequest struct {
	AssignedTo string `json:"assignedTo" validate:"omitempty,uuid"`
}

// Nullable is a JSON field that distinguishes an absent value from null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler. It is only called when the key
// is present, so Set records presence.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Date accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
type Date time.Time

// dateLayouts are tried in order.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.NewValidationError("dueDate", "must be a date", domain.ErrValidation)
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = Date(t.UTC())
			return nil
		}
	}
	return domain.NewValidationError("dueDate", fmt.Sprintf("must be a date, got %q", s), domain.ErrValidation)
}

// Time returns d as a time.Time.
func (d Date) Time() time.Time {
	return time.Time(d)
}

// timePtr converts an optional Date.
func (d *Date) timePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}

// parseOptionalUUID parses s, treating "" as no value.
func parseOptionalUUID(field, s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, domain.NewValidationError(field, "has invalid format", domain.ErrInvalidID)
	}
	return &id, nil
}
