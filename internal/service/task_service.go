package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"github.com/tasksync/tasksync-api/internal/store"
)

// Pagination bounds for task listings.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// TaskNotifier receives task events. Implementations must not block.
type TaskNotifier interface {
	TaskCreated(task *domain.Task)
	TaskReassigned(task *domain.Task)
}

// Optional is a patch field that distinguishes "absent" from "set to null".
// Set reports whether the field was present; a nil Value with Set true
// clears the field.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    domain.Priority
	AssignedTo  *uuid.UUID
}

// TaskPatch is a merge-patch of a task: nil pointers and unset Optionals are
// left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     Optional[time.Time]
	Priority    *domain.Priority
	Status      *domain.Status
	AssignedTo  Optional[uuid.UUID]
}

// ListInput describes a task listing request. Zero values select defaults.
type ListInput struct {
	Status     *domain.Status
	Priority   *domain.Priority
	AssignedTo *uuid.UUID
	Search     string
	SortBy     store.TaskSortField
	Descending bool
	Page       int
	Limit      int
}

// TaskList is one page of tasks visible to the caller.
type TaskList struct {
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Tasks []*domain.TaskView `json:"tasks"`
}

// TaskService provides task operations on behalf of an authenticated user.
type TaskService interface {
	Create(ctx context.Context, user *domain.User, in CreateTaskInput) (*domain.Task, error)
	List(ctx context.Context, user *domain.User, in ListInput) (*TaskList, error)
	Update(ctx context.Context, user *domain.User, id uuid.UUID, patch TaskPatch) (*domain.Task, error)
	UpdateStatus(ctx context.Context, user *domain.User, id uuid.UUID, status domain.Status) (*domain.Task, error)
	UpdatePriority(ctx context.Context, user *domain.User, id uuid.UUID, priority domain.Priority) (*domain.Task, error)
	Assign(ctx context.Context, user *domain.User, id uuid.UUID, assignee *uuid.UUID) (*domain.Task, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	tasks    store.TaskStore
	users    store.UserStore
	notifier TaskNotifier
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService. Notifier may be nil.
func NewTaskService(
	tasks store.TaskStore,
	users store.UserStore,
	notifier TaskNotifier,
	logger *slog.Logger,
) *TaskServiceImpl {
	if tasks == nil || users == nil {
		panic("task service stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskServiceImpl{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "task_service")),
	}
}

var _ TaskService = (*TaskServiceImpl)(nil)

// Create implements TaskService.Create
func (s *TaskServiceImpl) Create(ctx context.Context, user *domain.User, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(in.Title, in.Description, in.DueDate, in.Priority, user.ID, in.AssignedTo)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, task.AssignedTo); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, store.ErrUnknownReference) {
			return nil, ErrUnknownAssignee
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", user.ID.String()))

	if task.AssignedTo != nil && s.notifier != nil {
		s.notifier.TaskCreated(task)
	}
	return task, nil
}

// List implements TaskService.List
func (s *TaskServiceImpl) List(ctx context.Context, user *domain.User, in ListInput) (*TaskList, error) {
	page := in.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := in.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	sortBy := in.SortBy
	if sortBy == "" {
		sortBy = store.SortByDueDate
	}
	if !sortBy.IsValid() {
		return nil, domain.NewValidationError("sortBy", "must be one of dueDate, priority, status", domain.ErrValidation)
	}

	q := store.TaskQuery{
		Status:     in.Status,
		Priority:   in.Priority,
		AssignedTo: in.AssignedTo,
		Search:     strings.TrimSpace(in.Search),
		SortBy:     sortBy,
		Descending: in.Descending,
		Page:       page,
		Limit:      limit,
	}
	if !user.IsAdmin() {
		id := user.ID
		q.VisibleTo = &id
	}

	result, err := s.tasks.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := result.Tasks
	if tasks == nil {
		tasks = []*domain.TaskView{}
	}
	return &TaskList{Total: result.Total, Page: page, Limit: limit, Tasks: tasks}, nil
}

// Update implements TaskService.Update
func (s *TaskServiceImpl) Update(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	patch TaskPatch,
) (*domain.Task, error) {
	task, err := s.authorize(ctx, user, id, domain.ActionUpdate)
	if err != nil {
		return nil, err
	}
	previous := task.AssignedTo

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.DueDate.Set {
		task.DueDate = patch.DueDate.Value
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.AssignedTo.Set {
		task.AssignedTo = patch.AssignedTo.Value
	}

	changedAssignee := !domain.SameAssignee(previous, task.AssignedTo)
	if changedAssignee {
		if err := s.checkAssignee(ctx, task.AssignedTo); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, task, "update"); err != nil {
		return nil, err
	}
	if changedAssignee && task.AssignedTo != nil && s.notifier != nil {
		s.notifier.TaskReassigned(task)
	}
	return task, nil
}

// UpdateStatus implements TaskService.UpdateStatus
func (s *TaskServiceImpl) UpdateStatus(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	status domain.Status,
) (*domain.Task, error) {
	task, err := s.authorize(ctx, user, id, domain.ActionStatus)
	if err != nil {
		return nil, err
	}
	task.Status = status
	if err := s.save(ctx, task, "update_status"); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdatePriority implements TaskService.UpdatePriority
func (s *TaskServiceImpl) UpdatePriority(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	priority domain.Priority,
) (*domain.Task, error) {
	task, err := s.authorize(ctx, user, id, domain.ActionPriority)
	if err != nil {
		return nil, err
	}
	task.Priority = priority
	if err := s.save(ctx, task, "update_priority"); err != nil {
		return nil, err
	}
	return task, nil
}

// Assign implements TaskService.Assign
// A nil assignee clears the assignment.
func (s *TaskServiceImpl) Assign(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	assignee *uuid.UUID,
) (*domain.Task, error) {
	task, err := s.authorize(ctx, user, id, domain.ActionAssign)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, assignee); err != nil {
		return nil, err
	}

	task.AssignedTo = assignee
	if err := s.save(ctx, task, "assign"); err != nil {
		return nil, err
	}
	if assignee != nil && s.notifier != nil {
		s.notifier.TaskReassigned(task)
	}
	return task, nil
}

// Delete implements TaskService.Delete
func (s *TaskServiceImpl) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.authorize(ctx, user, id, domain.ActionDelete); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("user_id", user.ID.String()))
	return nil
}

// authorize loads the task and checks that user may perform action on it.
func (s *TaskServiceImpl) authorize(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	action domain.Action,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	if !domain.CanMutateTask(user, task, action) {
		log.Warn("task mutation forbidden",
			slog.String("task_id", id.String()),
			slog.String("user_id", user.ID.String()),
			slog.String("action", string(action)))
		return nil, forbidden(action)
	}
	return task, nil
}

func (s *TaskServiceImpl) checkAssignee(ctx context.Context, assignee *uuid.UUID) error {
	if assignee == nil {
		return nil
	}
	if _, err := s.users.GetByID(ctx, *assignee); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUnknownAssignee
		}
		return fmt.Errorf("failed to look up assignee: %w", err)
	}
	return nil
}

func (s *TaskServiceImpl) save(ctx context.Context, task *domain.Task, op string) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if task.Description == "" {
		return domain.NewValidationError("description", "is required", domain.ErrValidation)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		switch {
		case errors.Is(err, store.ErrTaskNotFound):
			return err
		case errors.Is(err, store.ErrUnknownReference):
			return ErrUnknownAssignee
		}
		return fmt.Errorf("failed to %s task: %w", strings.ReplaceAll(op, "_", " "), err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("operation", op))
	return nil
}
