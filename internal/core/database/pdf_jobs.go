package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

func (c *DatabaseClient) CreatePdfJob(ctx context.Context, j *models.PdfGenerationJob) error {
	if j == nil {
		return errors.New("nil pdf job")
	}
	const q = `
		INSERT INTO pdf_generation_jobs
			(id, audit_id, user_id, status, progress, parameters, expires_at, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), COALESCE($9, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		j.ID, j.AuditID, j.UserID, j.Status, j.Progress, []byte(j.Parameters), j.ExpiresAt, j.CreatedAt, j.UpdatedAt)
	return err
}

const pdfJobColumns = `
	id, audit_id, user_id, status, progress, parameters, content, artifact_key, error_message, expires_at, created_at, updated_at
`

func scanPdfJobRow(scan func(dest ...any) error) (*models.PdfGenerationJob, error) {
	var j models.PdfGenerationJob
	var params, content []byte
	err := scan(
		&j.ID, &j.AuditID, &j.UserID, &j.Status, &j.Progress, &params, &content, &j.ArtifactKey, &j.ErrorMessage, &j.ExpiresAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Parameters = json.RawMessage(params)
	j.Content = json.RawMessage(content)
	return &j, nil
}

func (c *DatabaseClient) GetPdfJob(ctx context.Context, id string) (*models.PdfGenerationJob, error) {
	q := `SELECT ` + pdfJobColumns + ` FROM pdf_generation_jobs WHERE id = $1`
	j, err := scanPdfJobRow(c.db.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (c *DatabaseClient) ListPdfJobsByAudit(ctx context.Context, auditID string) ([]models.PdfGenerationJob, error) {
	q := `SELECT ` + pdfJobColumns + ` FROM pdf_generation_jobs WHERE audit_id = $1 ORDER BY created_at DESC`
	rows, err := c.db.QueryContext(ctx, q, auditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PdfGenerationJob
	for rows.Next() {
		j, err := scanPdfJobRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// UpdatePdfJobStatus applies a forward-only status change. GREATEST keeps
// progress monotonic; the status guard keeps terminal states terminal.
func (c *DatabaseClient) UpdatePdfJobStatus(ctx context.Context, id, status string, progress int, errorMessage string) error {
	const q = `
		UPDATE pdf_generation_jobs
		SET status = $2, progress = GREATEST(progress, $3), error_message = $4, updated_at = now()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`
	res, err := c.db.ExecContext(ctx, q, id, status, progress, errorMessage)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrInvalidTransition
	}
	return nil
}

func (c *DatabaseClient) UpdatePdfJobContent(ctx context.Context, id string, content json.RawMessage) error {
	const q = `
		UPDATE pdf_generation_jobs
		SET content = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, []byte(content))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("pdf job not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) SetPdfJobArtifact(ctx context.Context, id, artifactKey string) error {
	const q = `
		UPDATE pdf_generation_jobs
		SET artifact_key = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, artifactKey)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("pdf job not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) DeletePdfJob(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM pdf_generation_jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("pdf job not found: %s", id)
	}
	return nil
}

// PurgeExpiredPdfJobs deletes jobs past their expiry. Run by the daily sweep.
func (c *DatabaseClient) PurgeExpiredPdfJobs(ctx context.Context, now time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM pdf_generation_jobs WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
