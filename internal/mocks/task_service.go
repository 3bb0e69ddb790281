package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/service"
)

// MockTaskService implements service.TaskService with overridable functions.
type MockTaskService struct {
	CreateFn         func(ctx context.Context, user *domain.User, in service.CreateTaskInput) (*domain.Task, error)
	ListFn           func(ctx context.Context, user *domain.User, in service.ListInput) (*service.TaskList, error)
	UpdateFn         func(ctx context.Context, user *domain.User, id uuid.UUID, patch service.TaskPatch) (*domain.Task, error)
	UpdateStatusFn   func(ctx context.Context, user *domain.User, id uuid.UUID, status domain.Status) (*domain.Task, error)
	UpdatePriorityFn func(ctx context.Context, user *domain.User, id uuid.UUID, priority domain.Priority) (*domain.Task, error)
	AssignFn         func(ctx context.Context, user *domain.User, id uuid.UUID, assignee *uuid.UUID) (*domain.Task, error)
	DeleteFn         func(ctx context.Context, user *domain.User, id uuid.UUID) error
}

var _ service.TaskService = (*MockTaskService)(nil)

// Create implements service.TaskService.
func (m *MockTaskService) Create(ctx context.Context, user *domain.User, in service.CreateTaskInput) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user, in)
	}
	return &domain.Task{ID: uuid.New(), Title: in.Title, CreatedBy: user.ID}, nil
}

// List implements service.TaskService.
func (m *MockTaskService) List(ctx context.Context, user *domain.User, in service.ListInput) (*service.TaskList, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, user, in)
	}
	return &service.TaskList{Page: 1, Limit: service.DefaultLimit, Tasks: []*domain.TaskView{}}, nil
}

// Update implements service.TaskService.
func (m *MockTaskService) Update(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	patch service.TaskPatch,
) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user, id, patch)
	}
	return &domain.Task{ID: id}, nil
}

// UpdateStatus implements service.TaskService.
func (m *MockTaskService) UpdateStatus(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	status domain.Status,
) (*domain.Task, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, user, id, status)
	}
	return &domain.Task{ID: id, Status: status}, nil
}

// UpdatePriority implements service.TaskService.
func (m *MockTaskService) UpdatePriority(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	priority domain.Priority,
) (*domain.Task, error) {
	if m.UpdatePriorityFn != nil {
		return m.UpdatePriorityFn(ctx, user, id, priority)
	}
	return &domain.Task{ID: id, Priority: priority}, nil
}

// Assign implements service.TaskService.
func (m *MockTaskService) Assign(
	ctx context.Context,
	user *domain.User,
	id uuid.UUID,
	assignee *uuid.UUID,
) (*domain.Task, error) {
	if m.AssignFn != nil {
		return m.AssignFn(ctx, user, id, assignee)
	}
	return &domain.Task{ID: id, AssignedTo: assignee}, nil
}

// Delete implements service.TaskService.
func (m *MockTaskService) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, user, id)
	}
	return nil
}
