package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/mocks"
	"github.com/tasksync/tasksync-api/internal/service"
	"github.com/tasksync/tasksync-api/internal/store"
)

func sampleTask(owner *domain.User) *domain.Task {
	now := time.Now().UTC()
	return &domain.Task{
		ID:          uuid.New(),
		Title:       "Write docs",
		Description: "API reference",
		Priority:    domain.PriorityMedium,
		Status:      domain.StatusTodo,
		CreatedBy:   owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestTaskHandler_CreateTask(t *testing.T) {
	user := testUser(domain.RoleManager)
	assignee := uuid.New()

	t.Run("created", func(t *testing.T) {
		var got service.CreateTaskInput
		svc := &mocks.MockTaskService{
			CreateFn: func(_ context.Context, u *domain.User, in service.CreateTaskInput) (*domain.Task, error) {
				assert.Same(t, user, u)
				got = in
				task := sampleTask(u)
				task.AssignedTo = in.AssignedTo
				return task, nil
			},
		}
		body := map[string]any{
			"title":       "Write docs",
			"description": "API reference",
			"dueDate":     "2025-03-01",
			"priority":    "High",
			"assignedTo":  assignee.String(),
		}
		w := doRequest(t, newTaskRouter(NewTaskHandler(svc, nil), user), http.MethodPost, "/tasks/createtask", body)

		require.Equal(t, http.StatusCreated, w.Code)
		var task domain.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
		assert.Equal(t, user.ID, task.CreatedBy)
		assert.Equal(t, domain.PriorityHigh, got.Priority)
		require.NotNil(t, got.DueDate)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *got.DueDate)
		require.NotNil(t, got.AssignedTo)
		assert.Equal(t, assignee, *got.AssignedTo)
	})

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"missing description", map[string]any{"title": "x"}, "description is required"},
		{"bad priority", map[string]any{"title": "x", "description": "y", "priority": "Urgent"}, "priority must be one of Low, Medium, High"},
		{"bad due date", map[string]any{"title": "x", "description": "y", "dueDate": "tomorrow"}, `dueDate must be a date, got "tomorrow"`},
		{"bad assignee", map[string]any{"title": "x", "description": "y", "assignedTo": "bob"}, "assignedTo has invalid format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockTaskService{
				CreateFn: func(context.Context, *domain.User, service.CreateTaskInput) (*domain.Task, error) {
					t.Fatal("service must not be called")
					return nil, nil
				},
			}
			w := doRequest(t, newTaskRouter(NewTaskHandler(svc, nil), user), http.MethodPost, "/tasks/createtask", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))
		})
	}

	t.Run("unknown assignee", func(t *testing.T) {
		svc := &mocks.MockTaskService{
			CreateFn: func(context.Context, *domain.User, service.CreateTaskInput) (*domain.Task, error) {
				return nil, service.ErrUnknownAssignee
			},
		}
		body := map[string]any{"title": "x", "description": "y", "assignedTo": assignee.String()}
		w := doRequest(t, newTaskRouter(NewTaskHandler(svc, nil), user), http.MethodPost, "/tasks/createtask", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "assignedTo must reference an existing user", decodeError(t, w))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := doRequest(t, newTaskRouter(NewTaskHandler(&mocks.MockTaskService{}, nil), nil), http.MethodPost,
			"/tasks/createtask", map[string]any{"title": "x", "description": "y"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTaskHandler_ListTasks(t *testing.T) {
	user := testUser(domain.RoleUser)

	t.Run("passes filters", func(t *testing.T) {
		assignee := uuid.New()
		var got service.ListInput
		svc := &mocks.MockTaskService{
			ListFn: func(_ context.Context, _ *domain.User, in service.ListInput) (*service.TaskList, error) {
				got = in
				return &service.TaskList{Total: 0, Page: in.Page, Limit: in.Limit, Tasks: []*domain.TaskView{}}, nil
			},
		}
		q := url.Values{
			"status":     {"In-Progress"},
			"priority":   {"Low"},
			"assignedTo": {assignee.String()},
			"search":     {"  docs "},
			"sortBy":     {"priority"},
			"order":      {"DESC"},
			"page":       {"2"},
			"limit":      {"5"},
		}
		w := doRequest(t, newTaskRouter(NewTaskHandler(svc, nil), user), http.MethodGet, "/tasks/listtasks?"+q.Encode(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"total":0,"page":2,"limit":5,"tasks":[]}`, w.Body.String())
		require.NotNil(t, got.Status)
		assert.Equal(t, domain.StatusInProgress, *got.Status)
		require.NotNil(t, got.Priority)
		assert.Equal(t, domain.PriorityLow, *got.Priority)
		assert.Equal(t, &assignee, got.AssignedTo)
		assert.Equal(t, "docs", got.Search)
		assert.Equal(t, store.TaskSortField("priority"), got.SortBy)
		assert.True(t, got.Descending)
	})

	tests := []struct {
		query   string
		message string
	}{
		{"limit=500", fmt.Sprintf("limit must be at most %d", service.MaxLimit)},
		{"limit=0", "limit must be a positive integer"},
		{"page=abc", "page must be a positive integer"},
		{"status=Blocked", "status must be one of Todo, In-Progress, Done"},
		{"priority=urgent", "priority must be one of Low, Medium, High"},
		{"sortBy=title", "sortBy must be one of dueDate, priority, status"},
		{"order=sideways", "order must be one of asc, desc"},
		{"assignedTo=nobody", "assignedTo has invalid format"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doRequest(t, newTaskRouter(NewTaskHandler(&mocks.MockTaskService{}, nil), user), http.MethodGet,
				"/tasks/listtasks?"+tt.query, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))
		})
	}
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	user := testUser(domain.RoleAdmin)
	id := uuid.New()

	capture := func(got *service.TaskPatch) *mocks.MockTaskService {
		return &mocks.MockTaskService{
			UpdateFn: func(_ context.Context, u *domain.User, taskID uuid.UUID, patch service.TaskPatch) (*domain.Task, error) {
				assert.Equal(t, id, taskID)
				*got = patch
				task := sampleTask(u)
				task.ID = taskID
				return task, nil
			},
		}
	}

	t.Run("absent fields are left unset", func(t *testing.T) {
		var patch service.TaskPatch
		w := doRequest(t, newTaskRouter(NewTaskHandler(capture(&patch), nil), user), http.MethodPut,
			"/tasks/updatetask/"+id.String(), map[string]any{"title": "New title"})

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, patch.Title)
		assert.Equal(t, "New title", *patch.Title)
		assert.Nil(t, patch.Description)
		assert.False(t, patch.DueDate.Set)
		assert.False(t, patch.AssignedTo.Set)
	})

	t.Run("null clears due date and assignee", func(t *testing.T) {
		var patch service.TaskPatch
		w := doRequest(t, newTaskRouter(NewTaskHandler(capture(&patch), nil), user), http.MethodPut,
			"/tasks/updatetask/"+id.String(), `{"dueDate":null,"assignedTo":null,"status":"Done"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, patch.DueDate.Set)
		assert.Nil(t, patch.DueDate.Value)
		assert.True(t, patch.AssignedTo.Set)
		assert.Nil(t, patch.AssignedTo.Value)
		require.NotNil(t, patch.Status)
		assert.Equal(t, domain.StatusDone, *patch.Status)
	})

	t.Run("sets due date and assignee", func(t *testing.T) {
		assignee := uuid.New()
		var patch service.TaskPatch
		body := map[string]any{"dueDate": "2025-06-30T12:00:00Z", "assignedTo": assignee.String()}
		w := doRequest(t, newTaskRouter(NewTaskHandler(capture(&patch), nil), user), http.MethodPut,
			"/tasks/updatetask/"+id.String(), body)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, patch.DueDate.Value)
		assert.Equal(t, time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC), *patch.DueDate.Value)
		require.NotNil(t, patch.AssignedTo.Value)
		assert.Equal(t, assignee, *patch.AssignedTo.Value)
	})

	t.Run("invalid status", func(t *testing.T) {
		w := doRequest(t, newTaskRouter(NewTaskHandler(&mocks.MockTaskService{}, nil), user), http.MethodPut,
			"/tasks/updatetask/"+id.String(), map[string]any{"status": "Blocked"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "status must be one of Todo, In-Progress, Done", decodeError(t, w))
	})

	t.Run("malformed id", func(t *testing.T) {
		w := doRequest(t, newTaskRouter(NewTaskHandler(&mocks.MockTaskService{}, nil), user), http.MethodPut,
			"/tasks/updatetask/not-a-uuid", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_ServiceErrors(t *testing.T) {
	user := testUser(domain.RoleUser)
	id := uuid.New()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", store.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
		{"forbidden", fmt.Errorf("%w: not allowed to delete this task", domain.ErrForbidden), http.StatusForbidden, "Forbidden"},
		{"store failure", store.NewStoreError("task", "delete", "delete failed", fmt.Errorf("conn reset")), http.StatusInternalServerError, InternalErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockTaskService{
				DeleteFn: func(context.Context, *domain.User, uuid.UUID) error { return tt.err },
				UpdateStatusFn: func(context.Context, *domain.User, uuid.UUID, domain.Status) (*domain.Task, error) {
					return nil, tt.err
				},
			}
			h := newTaskRouter(NewTaskHandler(svc, nil), user)

			w := doRequest(t, h, http.MethodDelete, "/tasks/deletetask/"+id.String(), nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))

			w = doRequest(t, h, http.MethodPut, "/tasks/updatestatus/"+id.String(), map[string]string{"status": "Done"})
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestTaskHandler_SingleFieldUpdates(t *testing.T) {
	user := testUser(domain.RoleManager)
	id := uuid.New()

	var status domain.Status
	var priority domain.Priority
	svc := &mocks.MockTaskService{
		UpdateStatusFn: func(_ context.Context, u *domain.User, _ uuid.UUID, s domain.Status) (*domain.Task, error) {
			status = s
			task := sampleTask(u)
			task.Status = s
			return task, nil
		},
		UpdatePriorityFn: func(_ context.Context, u *domain.User, _ uuid.UUID, p domain.Priority) (*domain.Task, error) {
			priority = p
			task := sampleTask(u)
			task.Priority = p
			return task, nil
		},
	}
	h := newTaskRouter(NewTaskHandler(svc, nil), user)

	w := doRequest(t, h, http.MethodPut, "/tasks/updatestatus/"+id.String(), map[string]string{"status": "In-Progress"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusInProgress, status)

	w = doRequest(t, h, http.MethodPut, "/tasks/updatestatus/"+id.String(), map[string]string{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusTodo, status)

	w = doRequest(t, h, http.MethodPut, "/tasks/updatepriority/"+id.String(), map[string]string{"priority": "High"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PriorityHigh, priority)

	w = doRequest(t, h, http.MethodPut, "/tasks/updatepriority/"+id.String(), map[string]string{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PriorityMedium, priority)

	w = doRequest(t, h, http.MethodPut, "/tasks/updatepriority/"+id.String(), map[string]string{"priority": "Urgent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_AssignTask(t *testing.T) {
	user := testUser(domain.RoleManager)
	id := uuid.New()
	assignee := uuid.New()

	var got *uuid.UUID
	calls := 0
	svc := &mocks.MockTaskService{
		AssignFn: func(_ context.Context, u *domain.User, _ uuid.UUID, a *uuid.UUID) (*domain.Task, error) {
			calls++
			got = a
			task := sampleTask(u)
			task.AssignedTo = a
			return task, nil
		},
	}
	h := newTaskRouter(NewTaskHandler(svc, nil), user)

	w := doRequest(t, h, http.MethodPut, "/tasks/assigntask/"+id.String(), map[string]string{"assignedTo": assignee.String()})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, assignee, *got)

	w = doRequest(t, h, http.MethodPut, "/tasks/assigntask/"+id.String(), map[string]string{"assignedTo": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, got)

	w = doRequest(t, h, http.MethodPut, "/tasks/assigntask/"+id.String(), map[string]string{"assignedTo": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 2, calls)
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	user := testUser(domain.RoleAdmin)
	id := uuid.New()

	var deleted uuid.UUID
	svc := &mocks.MockTaskService{
		DeleteFn: func(_ context.Context, _ *domain.User, taskID uuid.UUID) error {
			deleted = taskID
			return nil
		},
	}
	w := doRequest(t, newTaskRouter(NewTaskHandler(svc, nil), user), http.MethodDelete, "/tasks/deletetask/"+id.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Deleted"}`, w.Body.String())
	assert.Equal(t, id, deleted)
}
