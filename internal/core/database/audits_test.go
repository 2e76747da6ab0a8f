package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seopulse/seopulse/internal/core"
)

func newMockClient(t *testing.T) (*DatabaseClient, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewWithDB(sqlDB), mock
}

func auditRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "project_id", "user_id", "url", "status", "score", "report",
		"scheduled", "error_message", "created_at", "completed_at",
	})
}

func TestGetAuditByID(t *testing.T) {
	client, mock := newMockClient(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM audits WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(auditRows().AddRow(
			"a1", "p1", "u1", "https://example.com", "completed", 82, []byte(`{"issues":3}`),
			false, "", now, now,
		))

	audit, err := client.GetAuditByID(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, audit)
	assert.Equal(t, "completed", audit.Status)
	require.NotNil(t, audit.Score)
	assert.Equal(t, 82, *audit.Score)
	assert.JSONEq(t, `{"issues":3}`, string(audit.Report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAuditByIDMissingReturnsNil(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`SELECT .+ FROM audits WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(auditRows())

	audit, err := client.GetAuditByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, audit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestAuditForProjectNoneReturnsNil(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`SELECT .+ FROM audits WHERE project_id = \$1 ORDER BY created_at DESC LIMIT 1`).
		WithArgs("p1").
		WillReturnRows(auditRows())

	audit, err := client.LatestAuditForProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, audit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAuditStatusGuardsTerminalStates(t *testing.T) {
	client, mock := newMockClient(t)

	// The WHERE guard matches no rows for an audit already completed.
	mock.ExpectExec(`UPDATE audits`).
		WithArgs("a1", "processing", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := client.UpdateAuditStatus(context.Background(), "a1", "processing", "")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAuditStatusForward(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec(`UPDATE audits`).
		WithArgs("a1", "processing", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := client.UpdateAuditStatus(context.Background(), "a1", "processing", "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteAuditGuardedByStatus(t *testing.T) {
	client, mock := newMockClient(t)

	score := 90
	mock.ExpectExec(`UPDATE audits`).
		WithArgs("a1", "completed", sqlmock.AnyArg(), []byte(`{"ok":true}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := client.CompleteAudit(context.Background(), "a1", "completed", &score, []byte(`{"ok":true}`))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
