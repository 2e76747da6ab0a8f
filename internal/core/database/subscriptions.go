package db

import (
	"context"
	"errors"

	"github.com/seopulse/seopulse/internal/models"
)

// InsertSubscriptionEvent records a webhook event id. Returns false when the
// event was already processed (duplicate delivery), which lets the webhook
// handler short-circuit without reprocessing.
func (c *DatabaseClient) InsertSubscriptionEvent(ctx context.Context, e *models.SubscriptionEvent) (bool, error) {
	if e == nil {
		return false, errors.New("nil subscription event")
	}
	const q = `
		INSERT INTO subscription_events (id, event_type, payload, processed_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		ON CONFLICT (id) DO NOTHING
	`
	res, err := c.db.ExecContext(ctx, q, e.ID, e.EventType, []byte(e.Payload), e.ProcessedAt)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
