package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seopulse/seopulse/internal/models"
)

// Keywords are stored as a jsonb array; marshal on write, unmarshal on read.

func (c *DatabaseClient) CreateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return errors.New("nil project")
	}
	kw, err := json.Marshal(p.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	const q = `
		INSERT INTO projects
			(id, user_id, name, url, crawl_frequency, crawl_depth, keywords, status, subscription_tier, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()), COALESCE($11, now()))
	`
	_, err = c.db.ExecContext(ctx, q,
		p.ID, p.UserID, p.Name, p.URL, p.CrawlFrequency, p.CrawlDepth, kw, p.Status, p.SubscriptionTier, p.CreatedAt, p.UpdatedAt)
	return err
}

const projectColumns = `
	id, user_id, name, url, crawl_frequency, crawl_depth, keywords, status, subscription_tier, created_at, updated_at
`

func scanProjectRow(scan func(dest ...any) error) (*models.Project, error) {
	var p models.Project
	var kw []byte
	err := scan(
		&p.ID, &p.UserID, &p.Name, &p.URL, &p.CrawlFrequency, &p.CrawlDepth, &kw, &p.Status, &p.SubscriptionTier, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(kw) > 0 {
		if err := json.Unmarshal(kw, &p.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshal keywords: %w", err)
		}
	}
	return &p, nil
}

func (c *DatabaseClient) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProjectRow(c.db.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *DatabaseClient) listProjects(ctx context.Context, q string, args ...any) ([]models.Project, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProjectRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) ListProjectsByUser(ctx context.Context, userID string) ([]models.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = $1 ORDER BY created_at DESC`
	return c.listProjects(ctx, q, userID)
}

func (c *DatabaseClient) ListActiveProjects(ctx context.Context) ([]models.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE status = 'active' ORDER BY created_at`
	return c.listProjects(ctx, q)
}

func (c *DatabaseClient) UpdateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return errors.New("nil project")
	}
	kw, err := json.Marshal(p.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	const q = `
		UPDATE projects
		SET name = $2, url = $3, crawl_frequency = $4, crawl_depth = $5, keywords = $6, status = $7, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, p.ID, p.Name, p.URL, p.CrawlFrequency, p.CrawlDepth, kw, p.Status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project not found: %s", p.ID)
	}
	return nil
}

func (c *DatabaseClient) DeleteProject(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}
