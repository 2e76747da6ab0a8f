package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/seopulse/seopulse/internal/config"
	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: sqlDB}, nil
}

// NewWithDB wraps an existing handle. Used by tests with sqlmock.
func NewWithDB(sqlDB *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: sqlDB}
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Profiles

func (c *DatabaseClient) CreateProfile(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return errors.New("nil profile")
	}
	const q = `
		INSERT INTO profiles (id, email, password_hash, full_name, subscription_tier, subscription_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()), COALESCE($8, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		p.ID, p.Email, p.PasswordHash, p.FullName, p.SubscriptionTier, p.SubscriptionStatus, p.CreatedAt, p.UpdatedAt)
	return err
}

const profileColumns = `
	id, email, password_hash, full_name, subscription_tier, subscription_status,
	paypal_subscription_id, subscription_ends_at, created_at, updated_at
`

func scanProfile(row *sql.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.SubscriptionTier, &p.SubscriptionStatus,
		&p.PaypalSubscriptionID, &p.SubscriptionEndsAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *DatabaseClient) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return scanProfile(c.db.QueryRowContext(ctx, q, email))
}

func (c *DatabaseClient) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) GetProfileByPaypalSubscription(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE paypal_subscription_id = $1`
	return scanProfile(c.db.QueryRowContext(ctx, q, subscriptionID))
}

func (c *DatabaseClient) UpdateSubscription(ctx context.Context, userID, tier, status, paypalSubID string, endsAt *time.Time) error {
	const q = `
		UPDATE profiles
		SET subscription_tier = $2,
		    subscription_status = $3,
		    paypal_subscription_id = $4,
		    subscription_ends_at = $5,
		    updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, userID, tier, status, paypalSubID, endsAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("profile not found: %s", userID)
	}
	return nil
}

// DowngradeExpiredSubscriptions moves cancelled profiles whose paid period
// has ended back to the free tier. Run by the daily sweep.
func (c *DatabaseClient) DowngradeExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE profiles
		SET subscription_tier = 'free',
		    paypal_subscription_id = '',
		    subscription_ends_at = NULL,
		    updated_at = now()
		WHERE subscription_status = 'cancelled'
		  AND subscription_ends_at IS NOT NULL
		  AND subscription_ends_at <= $1
	`
	res, err := c.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
