package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasksync/tasksync-api/internal/api/shared"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/service"
	"github.com/tasksync/tasksync-api/internal/store"
)

// TaskHandler handles task requests. Every route requires authentication.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks/createtask.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	assignee, err := parseOptionalUUID("assignedTo", req.AssignedTo)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Create(r.Context(), user, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.timePtr(),
		Priority:    domain.Priority(req.Priority),
		AssignedTo:  assignee,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// ListTasks handles GET /tasks/listtasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	in, err := parseListQuery(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	list, err := h.tasks.List(r.Context(), user, in)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, list)
}

// UpdateTask handles PUT /tasks/updatetask/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, id, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Update(r.Context(), user, id, patch)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateStatus handles PUT /tasks/updatestatus/{id}.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, id, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), user, id, status)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdatePriority handles PUT /tasks/updatepriority/{id}.
func (h *TaskHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	user, id, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req PriorityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.UpdatePriority(r.Context(), user, id, priority)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// AssignTask handles PUT /tasks/assigntask/{id}.
func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	user, id, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AssignRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	assignee, err := parseOptionalUUID("assignedTo", req.AssignedTo)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Assign(r.Context(), user, id, assignee)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/deletetask/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, id, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), user, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Deleted"})
}

// toPatch converts the request into a service patch.
func (req UpdateTaskRequest) toPatch() (service.TaskPatch, error) {
	patch := service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		patch.Priority = &priority
	}
	if req.DueDate.Set {
		patch.DueDate = service.Optional[time.Time]{Set: true, Value: req.DueDate.Value.timePtr()}
	}
	if req.AssignedTo.Set {
		var raw string
		if req.AssignedTo.Value != nil {
			raw = *req.AssignedTo.Value
		}
		assignee, err := parseOptionalUUID("assignedTo", raw)
		if err != nil {
			return service.TaskPatch{}, err
		}
		patch.AssignedTo = service.Optional[uuid.UUID]{Set: true, Value: assignee}
	}
	return patch, nil
}

// parseListQuery reads listing filters, sorting and pagination from the
// query string. Empty parameters are ignored.
func parseListQuery(q url.Values) (service.ListInput, error) {
	var in service.ListInput

	if v := q.Get("status"); v != "" {
		status := domain.Status(v)
		if !status.IsValid() {
			return in, domain.NewValidationError("status", "must be one of Todo, In-Progress, Done", domain.ErrInvalidStatus)
		}
		in.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := domain.Priority(v)
		if !priority.IsValid() {
			return in, domain.NewValidationError("priority", "must be one of Low, Medium, High", domain.ErrInvalidPriority)
		}
		in.Priority = &priority
	}
	assignee, err := parseOptionalUUID("assignedTo", q.Get("assignedTo"))
	if err != nil {
		return in, err
	}
	in.AssignedTo = assignee
	in.Search = strings.TrimSpace(q.Get("search"))

	if v := q.Get("sortBy"); v != "" {
		in.SortBy = store.TaskSortField(v)
		if !in.SortBy.IsValid() {
			return in, domain.NewValidationError("sortBy", "must be one of dueDate, priority, status", domain.ErrValidation)
		}
	}
	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		in.Descending = true
	default:
		return in, domain.NewValidationError("order", "must be one of asc, desc", domain.ErrValidation)
	}

	if in.Page, err = positiveInt(q, "page", 0); err != nil {
		return in, err
	}
	if in.Limit, err = positiveInt(q, "limit", service.MaxLimit); err != nil {
		return in, err
	}
	return in, nil
}

// positiveInt parses an optional positive integer parameter. An upper bound of zero
// means unbounded.
func positiveInt(q url.Values, name string, upper int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(name, "must be a positive integer", domain.ErrValidation)
	}
	if upper > 0 && n > upper {
		return 0, domain.NewValidationError(name, "must be at most "+strconv.Itoa(upper), domain.ErrValidation)
	}
	return n, nil
}
