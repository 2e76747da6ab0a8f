package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/seopulse/seopulse/internal/models"
)

func (c *DatabaseClient) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n == nil {
		return errors.New("nil notification")
	}
	const q = `
		INSERT INTO notifications (id, user_id, type, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`
	_, err := c.db.ExecContext(ctx, q, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.CreatedAt)
	return err
}

func (c *DatabaseClient) ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	q := `
		SELECT id, user_id, type, title, message, read, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		q += ` AND read = false`
	}
	q += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) MarkNotificationRead(ctx context.Context, userID, id string) error {
	const q = `UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`
	res, err := c.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("notification not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := c.db.ExecContext(ctx, `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
