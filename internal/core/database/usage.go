package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/seopulse/seopulse/internal/models"
)

// GetUsageLimit returns nil when no row exists for (planType, featureName);
// the caller decides what a missing row means.
func (c *DatabaseClient) GetUsageLimit(ctx context.Context, planType, featureName string) (*models.UsageLimit, error) {
	const q = `
		SELECT plan_type, feature_name, monthly_limit
		FROM usage_limits
		WHERE plan_type = $1 AND feature_name = $2
	`
	var l models.UsageLimit
	err := c.db.QueryRowContext(ctx, q, planType, featureName).Scan(&l.PlanType, &l.FeatureName, &l.MonthlyLimit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *DatabaseClient) CountUsageSince(ctx context.Context, userID, featureName string, since time.Time) (int, error) {
	const q = `
		SELECT COALESCE(SUM(amount), 0)
		FROM usage_records
		WHERE user_id = $1 AND feature_name = $2 AND created_at >= $3
	`
	var n int
	err := c.db.QueryRowContext(ctx, q, userID, featureName, since).Scan(&n)
	return n, err
}

func (c *DatabaseClient) InsertUsageRecord(ctx context.Context, r *models.UsageRecord) error {
	if r == nil {
		return errors.New("nil usage record")
	}
	const q = `
		INSERT INTO usage_records (id, user_id, feature_name, amount, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`
	_, err := c.db.ExecContext(ctx, q, r.ID, r.UserID, r.FeatureName, r.Amount, r.CreatedAt)
	return err
}
