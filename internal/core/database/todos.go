package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/seopulse/seopulse/internal/models"
)

func (c *DatabaseClient) CreateTodo(ctx context.Context, t *models.Todo) error {
	if t == nil {
		return errors.New("nil todo")
	}
	const q = `
		INSERT INTO todos (id, project_id, user_id, title, description, priority, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()), COALESCE($10, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		t.ID, t.ProjectID, t.UserID, t.Title, t.Description, t.Priority, t.Status, t.DueDate, t.CreatedAt, t.UpdatedAt)
	return err
}

func (c *DatabaseClient) ListTodosByProject(ctx context.Context, projectID string) ([]models.Todo, error) {
	const q = `
		SELECT id, project_id, user_id, title, description, priority, status, due_date, created_at, updated_at
		FROM todos
		WHERE project_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Todo
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateTodo(ctx context.Context, t *models.Todo) error {
	if t == nil {
		return errors.New("nil todo")
	}
	const q = `
		UPDATE todos
		SET title = $2, description = $3, priority = $4, status = $5, due_date = $6, updated_at = now()
		WHERE id = $1 AND user_id = $7
	`
	res, err := c.db.ExecContext(ctx, q, t.ID, t.Title, t.Description, t.Priority, t.Status, t.DueDate, t.UserID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("todo not found: %s", t.ID)
	}
	return nil
}

// BatchUpdateTodoStatus sets the status on every listed todo owned by the
// user and reports how many rows actually changed.
func (c *DatabaseClient) BatchUpdateTodoStatus(ctx context.Context, userID string, ids []string, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const q = `
		UPDATE todos
		SET status = $3, updated_at = now()
		WHERE user_id = $1 AND id = ANY($2)
	`
	res, err := c.db.ExecContext(ctx, q, userID, ids, status)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *DatabaseClient) BatchUpdateTodoPriority(ctx context.Context, userID string, ids []string, priority string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const q = `
		UPDATE todos
		SET priority = $3, updated_at = now()
		WHERE user_id = $1 AND id = ANY($2)
	`
	res, err := c.db.ExecContext(ctx, q, userID, ids, priority)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *DatabaseClient) BatchDeleteTodos(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const q = `DELETE FROM todos WHERE user_id = $1 AND id = ANY($2)`
	res, err := c.db.ExecContext(ctx, q, userID, ids)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
