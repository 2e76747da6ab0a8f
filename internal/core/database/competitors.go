package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

func (c *DatabaseClient) CreateCompetitor(ctx context.Context, comp *models.Competitor) error {
	if comp == nil {
		return errors.New("nil competitor")
	}
	const q = `
		INSERT INTO competitors (id, project_id, url, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()), COALESCE($7, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		comp.ID, comp.ProjectID, comp.URL, comp.Name, comp.Status, comp.CreatedAt, comp.UpdatedAt)
	return err
}

func (c *DatabaseClient) ListCompetitorsByProject(ctx context.Context, projectID string) ([]models.Competitor, error) {
	const q = `
		SELECT id, project_id, url, name, status, analysis, created_at, updated_at
		FROM competitors
		WHERE project_id = $1
		ORDER BY created_at
	`
	rows, err := c.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Competitor
	for rows.Next() {
		var comp models.Competitor
		var analysis []byte
		if err := rows.Scan(
			&comp.ID, &comp.ProjectID, &comp.URL, &comp.Name, &comp.Status, &analysis, &comp.CreatedAt, &comp.UpdatedAt,
		); err != nil {
			return nil, err
		}
		comp.Analysis = json.RawMessage(analysis)
		out = append(out, comp)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CountCompetitorsByProject(ctx context.Context, projectID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM competitors WHERE project_id = $1`, projectID).Scan(&n)
	return n, err
}

// UpdateCompetitorStatus advances a competitor's analysis state. The row is
// matched on both project and competitor id, and terminal states never move.
func (c *DatabaseClient) UpdateCompetitorStatus(ctx context.Context, projectID, id, status string, analysis json.RawMessage) error {
	const q = `
		UPDATE competitors
		SET status = $3, analysis = COALESCE($4, analysis), updated_at = now()
		WHERE id = $1 AND project_id = $2
		  AND status NOT IN ('completed', 'failed')
	`
	var payload any
	if len(analysis) > 0 {
		payload = []byte(analysis)
	}
	res, err := c.db.ExecContext(ctx, q, id, projectID, status, payload)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrInvalidTransition
	}
	return nil
}

func (c *DatabaseClient) DeleteCompetitor(ctx context.Context, projectID, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM competitors WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
