package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tasklane/apiserver/types"
)

// TaskRepository handles persistence for tasks.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, text, completed, priority, owner_id, created_at, updated_at`

// ListByOwner returns the owner's tasks matching filter, newest first.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int, filter types.TaskFilter) ([]types.Task, error) {
	conditions := []string{"owner_id = $1"}
	args := []any{ownerID}

	switch filter.Status {
	case types.TaskStatusActive:
		conditions = append(conditions, "completed = FALSE")
	case types.TaskStatusCompleted:
		conditions = append(conditions, "completed = TRUE")
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}

	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]types.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int) (types.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	const query = `
		INSERT INTO tasks (text, completed, priority, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		task.Text,
		task.Completed,
		string(task.Priority),
		task.OwnerID,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID); err != nil {
		return types.Task{}, err
	}
	return task, nil
}

// Update writes the mutable fields of task. The row must still belong to
// task.OwnerID; otherwise ErrNotFound is returned.
func (r *TaskRepository) Update(ctx context.Context, task types.Task) (types.Task, error) {
	task.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE tasks
		SET text = $1,
			completed = $2,
			priority = $3,
			updated_at = $4
		WHERE id = $5 AND owner_id = $6
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		task.Text,
		task.Completed,
		string(task.Priority),
		task.UpdatedAt,
		task.ID,
		task.OwnerID,
	).Scan(&task.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

// Delete removes the task if it belongs to ownerID.
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID int) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (types.Task, error) {
	var task types.Task
	var priority string
	err := row.Scan(
		&task.ID,
		&task.Text,
		&task.Completed,
		&priority,
		&task.OwnerID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return types.Task{}, err
	}
	task.Priority = types.Priority(priority)
	return task, nil
}
