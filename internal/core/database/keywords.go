package db

import (
	"context"
	"database/sql"

	"github.com/seopulse/seopulse/internal/models"
)

// InsertKeywordRankings batch-inserts one history row per tracked keyword in
// a single transaction.
func (c *DatabaseClient) InsertKeywordRankings(ctx context.Context, rankings []models.KeywordRanking) error {
	if len(rankings) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO keyword_ranking_history (id, project_id, keyword, position, url, search_engine, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range rankings {
		r := &rankings[i]
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.ProjectID, r.Keyword, r.Position, r.URL, r.SearchEngine, r.CheckedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) ListKeywordHistory(ctx context.Context, projectID, keyword string, limit int) ([]models.KeywordRanking, error) {
	if limit <= 0 {
		limit = 100
	}
	const qAll = `
		SELECT id, project_id, keyword, position, url, search_engine, checked_at
		FROM keyword_ranking_history
		WHERE project_id = $1
		ORDER BY checked_at DESC LIMIT $2
	`
	const qKeyword = `
		SELECT id, project_id, keyword, position, url, search_engine, checked_at
		FROM keyword_ranking_history
		WHERE project_id = $1 AND keyword = $2
		ORDER BY checked_at DESC LIMIT $3
	`
	var rows *sql.Rows
	var err error
	if keyword == "" {
		rows, err = c.db.QueryContext(ctx, qAll, projectID, limit)
	} else {
		rows, err = c.db.QueryContext(ctx, qKeyword, projectID, keyword, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.KeywordRanking
	for rows.Next() {
		var r models.KeywordRanking
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Keyword, &r.Position, &r.URL, &r.SearchEngine, &r.CheckedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
