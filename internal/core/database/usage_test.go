package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUsageLimit(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`SELECT plan_type, feature_name, monthly_limit`).
		WithArgs("free", "audits").
		WillReturnRows(sqlmock.NewRows([]string{"plan_type", "feature_name", "monthly_limit"}).
			AddRow("free", "audits", 3))

	limit, err := client.GetUsageLimit(context.Background(), "free", "audits")
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.Equal(t, 3, limit.MonthlyLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUsageLimitMissingReturnsNil(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`SELECT plan_type, feature_name, monthly_limit`).
		WithArgs("free", "unknown").
		WillReturnRows(sqlmock.NewRows([]string{"plan_type", "feature_name", "monthly_limit"}))

	limit, err := client.GetUsageLimit(context.Background(), "free", "unknown")
	require.NoError(t, err)
	assert.Nil(t, limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUsageSince(t *testing.T) {
	client, mock := newMockClient(t)

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)`).
		WithArgs("u1", "pdf_reports", since).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

	n, err := client.CountUsageSince(context.Background(), "u1", "pdf_reports", since)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
