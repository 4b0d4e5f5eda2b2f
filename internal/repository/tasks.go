package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bridgesync/bridgesync/internal/model"
)

// TaskRepository handles work items derived from call summaries.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository constructs a repository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Insert stores one task.
func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	if t.Status == "" {
		t.Status = model.TaskPending
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	t.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, title, description, assigned_to, status, priority, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, t.ID, t.Title, t.Description, t.AssignedTo, string(t.Status), string(t.Priority), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// List returns all tasks newest first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, assigned_to, status, priority, created_at
		FROM tasks ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListAssignedTo returns tasks assigned to one user newest first.
func (r *TaskRepository) ListAssignedTo(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, assigned_to, status, priority, created_at
		FROM tasks WHERE assigned_to=$1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// SetStatus updates the workflow state of a task.
func (r *TaskRepository) SetStatus(ctx context.Context, id string, status model.TaskStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET status=$1 WHERE id=$2
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanTasks(rows pgx.Rows) ([]model.Task, error) {
	var out []model.Task
	for rows.Next() {
		var (
			t        model.Task
			status   string
			priority string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.AssignedTo, &status, &priority, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status = model.TaskStatus(status)
		t.Priority = model.TaskPriority(priority)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}
