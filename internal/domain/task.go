package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the urgency of a task. Ordering is Low < Medium < High.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Status is the progress state of a task. Ordering is Todo < In-Progress < Done.
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In-Progress"
	StatusDone       Status = "Done"
)

// Priorities lists valid priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Statuses lists valid statuses in ascending order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	return p.Rank() >= 0
}

// Rank returns the ordinal of p, or -1 for an unknown value.
func (p Priority) Rank() int {
	for i, v := range Priorities {
		if v == p {
			return i
		}
	}
	return -1
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the ordinal of s, or -1 for an unknown value.
func (s Status) Rank() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

// ParsePriority converts s into a Priority. Empty yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	p := Priority(s)
	if !p.IsValid() {
		return "", NewValidationError("priority", "must be one of Low, Medium, High", ErrInvalidPriority)
	}
	return p, nil
}

// ParseStatus converts s into a Status. Empty yields StatusTodo.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusTodo, nil
	}
	st := Status(s)
	if !st.IsValid() {
		return "", NewValidationError("status", "must be one of Todo, In-Progress, Done", ErrInvalidStatus)
	}
	return st, nil
}

// Task is a unit of work created by one user and optionally assigned to another.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	AssignedTo  *uuid.UUID `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTask creates a Todo task owned by createdBy.
func NewTask(
	title, description string,
	dueDate *time.Time,
	priority Priority,
	createdBy uuid.UUID,
	assignedTo *uuid.UUID,
) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		DueDate:     dueDate,
		Priority:    priority,
		Status:      StatusTodo,
		CreatedBy:   createdBy,
		AssignedTo:  assignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	if task.Description == "" {
		return nil, NewValidationError("description", "is required", ErrValidation)
	}
	return task, nil
}

// Validate checks the invariants every persisted task must satisfy.
// Description may be empty on existing records.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.Title == "" {
		return NewValidationError("title", "is required", ErrValidation)
	}
	if !t.Priority.IsValid() {
		return NewValidationError("priority", "must be one of Low, Medium, High", ErrInvalidPriority)
	}
	if !t.Status.IsValid() {
		return NewValidationError("status", "must be one of Todo, In-Progress, Done", ErrInvalidStatus)
	}
	if t.CreatedBy == uuid.Nil {
		return NewValidationError("createdBy", "cannot be empty", ErrInvalidID)
	}
	if t.AssignedTo != nil && *t.AssignedTo == uuid.Nil {
		return NewValidationError("assignedTo", "has invalid format", ErrInvalidID)
	}
	return nil
}

// IsCreator reports whether userID created the task.
func (t *Task) IsCreator(userID uuid.UUID) bool {
	return t.CreatedBy == userID
}

// IsAssignee reports whether the task is assigned to userID.
func (t *Task) IsAssignee(userID uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// TaskView is a task with its creator and assignee expanded.
type TaskView struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedBy   UserRef    `json:"createdBy"`
	AssignedTo  *UserRef   `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SameAssignee reports whether a and b point at the same user, treating two
// nils as equal.
func SameAssignee(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
