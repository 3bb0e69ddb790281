package postgres

import (
	"context"
	"database/sql"
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

const taskColumns = `id, title, description, due_date, priority, status, created_by, assigned_to, created_at, updated_at`

// Ordinal expressions so priority and status sort by meaning, not alphabetically.
const (
	priorityRankExpr = `CASE t.priority WHEN 'Low' THEN 0 WHEN 'Medium' THEN 1 WHEN 'High' THEN 2 END`
	statusRankExpr   = `CASE t.status WHEN 'Todo' THEN 0 WHEN 'In-Progress' THEN 1 WHEN 'Done' THEN 2 END`
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
		task.CreatedBy,
		task.AssignedTo,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return s.writeError(ctx, "create", task, err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by", task.CreatedBy.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var (
		task       domain.Task
		priority   string
		status     string
		dueDate    sql.NullTime
		assignedTo uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&dueDate,
		&priority,
		&status,
		&task.CreatedBy,
		&assignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "get_by_id", "query failed", err)
	}

	task.Priority = domain.Priority(priority)
	task.Status = domain.Status(status)
	task.DueDate = timePtr(dueDate)
	task.AssignedTo = uuidPtr(assignedTo)
	return &task, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $2, description = $3, due_date = $4, priority = $5,
			status = $6, assigned_to = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
		task.AssignedTo,
		task.UpdatedAt,
	)
	if err != nil {
		return s.writeError(ctx, "update", task, err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			log.Debug("task not found for update", slog.String("task_id", task.ID.String()))
		}
		return err
	}

	log.Debug("task updated", slog.String("task_id", task.ID.String()))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return store.NewStoreError("task", "delete", "delete failed", err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// List implements store.TaskStore.List
// The count and the page are read in one repeatable-read transaction so the
// total matches the rows returned.
func (s *PostgresTaskStore) List(ctx context.Context, q store.TaskQuery) (*store.TaskPage, error) {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.list(ctx, s.db, q)
	}

	var page *store.TaskPage
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := store.RunInTransaction(ctx, db, opts, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		page, err = s.list(ctx, tx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *PostgresTaskStore) list(ctx context.Context, db store.DBTX, q store.TaskQuery) (*store.TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildTaskFilter(q)

	countQuery := `SELECT COUNT(*) FROM tasks t` + where
	var total int
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "count failed", err)
	}

	limitPos := len(args) + 1
	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset())

	selectQuery := fmt.Sprintf(`
		SELECT t.id, t.title, t.description, t.due_date, t.priority, t.status,
			t.created_at, t.updated_at,
			c.id, c.username, c.email, c.role,
			a.id, a.username, a.email, a.role
		FROM tasks t
		JOIN users c ON c.id = t.created_by
		LEFT JOIN users a ON a.id = t.assigned_to%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		where, buildTaskOrder(q), limitPos, limitPos+1)

	rows, err := db.QueryContext(ctx, selectQuery, pageArgs...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.TaskView, 0, q.Limit)
	for rows.Next() {
		view, err := scanTaskView(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "list", "scan failed", err)
		}
		tasks = append(tasks, view)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "row iteration failed", err)
	}

	log.Debug("tasks listed",
		slog.Int("total", total),
		slog.Int("returned", len(tasks)),
		slog.Int("page", q.Page))
	return &store.TaskPage{Total: total, Tasks: tasks}, nil
}

// buildTaskFilter renders the WHERE clause shared by the count and page
// queries. The returned clause is empty or starts with a space.
func buildTaskFilter(q store.TaskQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(format string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if q.VisibleTo != nil {
		args = append(args, *q.VisibleTo)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(t.created_by = $%d OR t.assigned_to = $%d)", n, n))
	}
	if q.Status != nil {
		add("t.status = $%d", string(*q.Status))
	}
	if q.Priority != nil {
		add("t.priority = $%d", string(*q.Priority))
	}
	if q.AssignedTo != nil {
		add("t.assigned_to = $%d", *q.AssignedTo)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		add("t.search_vector @@ plainto_tsquery('english', $%d)", search)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildTaskOrder renders the ORDER BY list. Missing due dates sort last in
// either direction; created_at and id keep the order stable across pages.
func buildTaskOrder(q store.TaskQuery) string {
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	var key string
	switch q.SortBy {
	case store.SortByPriority:
		key = priorityRankExpr
	case store.SortByStatus:
		key = statusRankExpr
	default:
		key = "t.due_date"
	}

	return fmt.Sprintf("%s %s NULLS LAST, t.created_at ASC, t.id ASC", key, dir)
}

func scanTaskView(row rowScanner) (*domain.TaskView, error) {
	var (
		view          domain.TaskView
		priority      string
		status        string
		dueDate       sql.NullTime
		creatorRole   string
		assigneeID    uuid.NullUUID
		assigneeName  sql.NullString
		assigneeEmail sql.NullString
		assigneeRole  sql.NullString
	)
	err := row.Scan(
		&view.ID,
		&view.Title,
		&view.Description,
		&dueDate,
		&priority,
		&status,
		&view.CreatedAt,
		&view.UpdatedAt,
		&view.CreatedBy.ID,
		&view.CreatedBy.Username,
		&view.CreatedBy.Email,
		&creatorRole,
		&assigneeID,
		&assigneeName,
		&assigneeEmail,
		&assigneeRole,
	)
	if err != nil {
		return nil, err
	}

	view.Priority = domain.Priority(priority)
	view.Status = domain.Status(status)
	view.DueDate = timePtr(dueDate)
	view.CreatedBy.Role = domain.Role(creatorRole)
	if assigneeID.Valid {
		view.AssignedTo = &domain.UserRef{
			ID:       assigneeID.UUID,
			Username: assigneeName.String,
			Email:    assigneeEmail.String,
			Role:     domain.Role(assigneeRole.String),
		}
	}
	return &view, nil
}

func (s *PostgresTaskStore) writeError(ctx context.Context, op string, task *domain.Task, err error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	mapped := MapError(err)
	if errors.Is(mapped, store.ErrUnknownReference) || errors.Is(mapped, store.ErrInvalidEntity) {
		log.Warn("task write rejected by constraint",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return mapped
	}

	log.Error("failed to write task",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.String("task_id", task.ID.String()))
	return store.NewStoreError("task", op, "write failed", mapped)
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func uuidPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}
