package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/domain"
)

// TaskSortField names a column tasks can be ordered by.
type TaskSortField string

const (
	SortByDueDate  TaskSortField = "dueDate"
	SortByPriority TaskSortField = "priority"
	SortByStatus   TaskSortField = "status"
)

// IsValid reports whether f is a supported sort field.
func (f TaskSortField) IsValid() bool {
	switch f {
	case SortByDueDate, SortByPriority, SortByStatus:
		return true
	}
	return false
}

// TaskQuery describes a filtered, sorted, paginated task listing.
// Nil filter fields are not applied.
type TaskQuery struct {
	// VisibleTo restricts results to tasks created by or assigned to this
	// user. Nil means no restriction.
	VisibleTo *uuid.UUID

	Status     *domain.Status
	Priority   *domain.Priority
	AssignedTo *uuid.UUID
	Search     string

	SortBy     TaskSortField
	Descending bool

	// Page is 1-indexed.
	Page  int
	Limit int
}

// Offset returns the number of rows to skip for the query's page.
func (q TaskQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// TaskPage is one page of a task listing plus the total number of matches.
type TaskPage struct {
	Total int
	Tasks []*domain.TaskView
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrUnknownReference if the creator or assignee does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update writes every mutable field of task and refreshes UpdatedAt.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns the page of tasks matching q and the total match count.
	List(ctx context.Context, q TaskQuery) (*TaskPage, error)
}
