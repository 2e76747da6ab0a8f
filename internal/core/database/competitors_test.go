package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/seopulse/seopulse/internal/core"
)

func TestUpdateCompetitorStatusScopedAndGuarded(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec(`UPDATE competitors SET .+ WHERE id = \$1 AND project_id = \$2\s+AND status NOT IN \('completed', 'failed'\)`).
		WithArgs("c1", "p1", "in_progress", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := client.UpdateCompetitorStatus(context.Background(), "p1", "c1", "in_progress", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCompetitorStatusNeverRegressesTerminalState(t *testing.T) {
	client, mock := newMockClient(t)

	// The WHERE guard matches no rows for a competitor already completed.
	mock.ExpectExec(`UPDATE competitors`).
		WithArgs("c1", "p1", "in_progress", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := client.UpdateCompetitorStatus(context.Background(), "p1", "c1", "in_progress", nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCompetitorScopedToProject(t *testing.T) {
	client, mock := newMockClient(t)

	// A competitor belonging to another project matches no rows.
	mock.ExpectExec(`DELETE FROM competitors WHERE id = \$1 AND project_id = \$2`).
		WithArgs("foreign-competitor", "p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := client.DeleteCompetitor(context.Background(), "p1", "foreign-competitor")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCompetitorOwnRow(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec(`DELETE FROM competitors WHERE id = \$1 AND project_id = \$2`).
		WithArgs("c1", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := client.DeleteCompetitor(context.Background(), "p1", "c1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
