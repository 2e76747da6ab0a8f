package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

func (c *DatabaseClient) CreateAudit(ctx context.Context, a *models.Audit) error {
	if a == nil {
		return errors.New("nil audit")
	}
	const q = `
		INSERT INTO audits
			(id, project_id, user_id, url, status, scheduled, error_message, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		a.ID, a.ProjectID, a.UserID, a.URL, a.Status, a.Scheduled, a.ErrorMessage, a.CreatedAt)
	return err
}

const auditColumns = `
	id, project_id, user_id, url, status, score, report, scheduled, error_message, created_at, completed_at
`

func scanAuditRow(scan func(dest ...any) error) (*models.Audit, error) {
	var a models.Audit
	var report []byte
	err := scan(
		&a.ID, &a.ProjectID, &a.UserID, &a.URL, &a.Status, &a.Score, &report, &a.Scheduled, &a.ErrorMessage, &a.CreatedAt, &a.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Report = json.RawMessage(report)
	return &a, nil
}

func (c *DatabaseClient) GetAuditByID(ctx context.Context, id string) (*models.Audit, error) {
	q := `SELECT ` + auditColumns + ` FROM audits WHERE id = $1`
	a, err := scanAuditRow(c.db.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (c *DatabaseClient) ListAuditsByProject(ctx context.Context, projectID string, limit int) ([]models.Audit, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + auditColumns + ` FROM audits WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := c.db.QueryContext(ctx, q, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Audit
	for rows.Next() {
		a, err := scanAuditRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// LatestAuditForProject returns the most recent audit, or nil when the
// project has never been audited.
func (c *DatabaseClient) LatestAuditForProject(ctx context.Context, projectID string) (*models.Audit, error) {
	q := `SELECT ` + auditColumns + ` FROM audits WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`
	a, err := scanAuditRow(c.db.QueryRowContext(ctx, q, projectID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAuditStatus moves an audit forward. The status guard in the WHERE
// clause keeps terminal states terminal even under concurrent updates.
func (c *DatabaseClient) UpdateAuditStatus(ctx context.Context, id, status, errorMessage string) error {
	const q = `
		UPDATE audits
		SET status = $2, error_message = $3
		WHERE id = $1 AND status IN ('pending', 'processing')
	`
	res, err := c.db.ExecContext(ctx, q, id, status, errorMessage)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrInvalidTransition
	}
	return nil
}

// CompleteAudit records the crawler's terminal result (completed or failed)
// together with the score and report payload.
func (c *DatabaseClient) CompleteAudit(ctx context.Context, id, status string, score *int, report json.RawMessage) error {
	const q = `
		UPDATE audits
		SET status = $2, score = $3, report = $4, completed_at = now()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`
	res, err := c.db.ExecContext(ctx, q, id, status, score, []byte(report))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrInvalidTransition
	}
	return nil
}
