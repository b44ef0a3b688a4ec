package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/platform/apperr"
)

// Task is one preparation or follow-up item attached to a trip stage.
type Task struct {
	ID          int64          `json:"id"`
	TripID      int64          `json:"trip_id"`
	Stage       string         `json:"stage"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Status      string         `json:"status"`
	Priority    int            `json:"priority"`
	AssignedTo  *string        `json:"assigned_to"`
	DueDate     *time.Time     `json:"due_date"`
	Meta        map[string]any `json:"meta"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// CreateParams are the inputs for creating a task.
type CreateParams struct {
	TripID      int64
	UserID      int64
	Stage       string
	Title       string
	Description *string
	Priority    int
	AssignedTo  *string
	DueDate     *time.Time
	Meta        map[string]any
}

// UpdateParams are the patchable fields of a task. Nil means unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *int
	AssignedTo  *string
	DueDate     *time.Time
	Meta        map[string]any
}

// Repository provides task persistence scoped to trip ownership.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Task, error)
	ListByTrip(ctx context.Context, tripID, userID int64, stage string) ([]Task, error)
	Update(ctx context.Context, taskID, userID int64, params UpdateParams) (Task, error)
	Delete(ctx context.Context, taskID, userID int64) error
}

// Repo is the PostgreSQL implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// NewRepo creates a task repository backed by the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const taskColumns = `tk.id, tk.trip_id, tk.stage, tk.title, tk.description, tk.status,
	tk.priority, tk.assigned_to, tk.due_date, tk.meta, tk.created_at, tk.updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&t.ID, &t.TripID, &t.Stage, &t.Title, &t.Description, &t.Status,
		&t.Priority, &t.AssignedTo, &t.DueDate, &t.Meta, &createdAt, &updatedAt,
	)
	if err != nil {
		return Task{}, err
	}
	t.CreatedAt = createdAt.Format(time.RFC3339)
	t.UpdatedAt = updatedAt.Format(time.RFC3339)
	return t, nil
}

// Create inserts a task after verifying trip ownership.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Task, error) {
	meta := params.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (trip_id, stage, title, description, priority, assigned_to, due_date, meta)
		SELECT t.id, $3, $4, $5, $6, $7, $8, $9
		FROM trips t
		WHERE t.id = $1 AND t.user_id = $2
		RETURNING id, trip_id, stage, title, description, status, priority, assigned_to, due_date, meta, created_at, updated_at`,
		params.TripID, params.UserID, params.Stage, params.Title, params.Description,
		params.Priority, params.AssignedTo, params.DueDate, meta,
	)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, apperr.NotFound("trip_not_found")
	}
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// ListByTrip returns the trip's tasks, optionally filtered by stage.
func (r *Repo) ListByTrip(ctx context.Context, tripID, userID int64, stage string) ([]Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks tk
		JOIN trips t ON t.id = tk.trip_id
		WHERE tk.trip_id = $1 AND t.user_id = $2`
	args := []any{tripID, userID}
	if stage != "" {
		args = append(args, stage)
		query += fmt.Sprintf(" AND tk.stage = $%d", len(args))
	}
	query += " ORDER BY tk.priority DESC, tk.id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Update patches the given fields of a task owned by the user.
func (r *Repo) Update(ctx context.Context, taskID, userID int64, params UpdateParams) (Task, error) {
	sets := []string{"updated_at = now()"}
	args := []any{taskID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Priority != nil {
		add("priority", *params.Priority)
	}
	if params.AssignedTo != nil {
		add("assigned_to", *params.AssignedTo)
	}
	if params.DueDate != nil {
		add("due_date", *params.DueDate)
	}
	if params.Meta != nil {
		add("meta", params.Meta)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)
		RETURNING id, trip_id, stage, title, description, status, priority, assigned_to, due_date, meta, created_at, updated_at`,
		args...,
	)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, apperr.NotFound("task_not_found")
	}
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Delete removes a task owned by the user.
func (r *Repo) Delete(ctx context.Context, taskID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM tasks
		WHERE id = $1 AND trip_id IN (SELECT id FROM trips WHERE user_id = $2)`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("task_not_found")
	}
	return nil
}
