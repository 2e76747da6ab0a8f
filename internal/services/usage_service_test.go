package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/core/cache"
	"github.com/seopulse/seopulse/internal/models"
)

func usageFixture(tier string, limit *models.UsageLimit, used int) *fakeDB {
	return &fakeDB{
		getProfileByID: func(_ context.Context, id string) (*models.Profile, error) {
			return &models.Profile{ID: id, SubscriptionTier: tier}, nil
		},
		getUsageLimit: func(_ context.Context, _, _ string) (*models.UsageLimit, error) {
			return limit, nil
		},
		countUsageSince: func(_ context.Context, _, _ string, _ time.Time) (int, error) {
			return used, nil
		},
	}
}

func TestCheckLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     *models.UsageLimit
		used      int
		requested int
		allowed   bool
	}{
		{
			name:      "under limit",
			limit:     &models.UsageLimit{MonthlyLimit: 3},
			used:      1,
			requested: 1,
			allowed:   true,
		},
		{
			name:      "exactly reaches limit",
			limit:     &models.UsageLimit{MonthlyLimit: 3},
			used:      2,
			requested: 1,
			allowed:   true,
		},
		{
			name:      "would exceed limit",
			limit:     &models.UsageLimit{MonthlyLimit: 3},
			used:      3,
			requested: 1,
			allowed:   false,
		},
		{
			name:      "unlimited tier bypasses count",
			limit:     &models.UsageLimit{MonthlyLimit: -1},
			used:      100000,
			requested: 1,
			allowed:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := usageFixture(models.TierFree, tt.limit, tt.used)
			svc := NewUsageService(db, nil, zap.NewNop(), true)

			d, err := svc.CheckLimit(context.Background(), "user-1", models.FeatureAudits, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, d.Allowed)
		})
	}
}

func TestCheckLimitMissingRowPolicy(t *testing.T) {
	db := usageFixture(models.TierFree, nil, 0)

	deny := NewUsageService(db, nil, zap.NewNop(), true)
	d, err := deny.CheckLimit(context.Background(), "user-1", "unknown_feature", 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	allow := NewUsageService(db, nil, zap.NewNop(), false)
	d, err = allow.CheckLimit(context.Background(), "user-1", "unknown_feature", 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, -1, d.Limit)
}

func TestLimitForAppliesMissingRowPolicy(t *testing.T) {
	missing := usageFixture(models.TierFree, nil, 0)

	deny := NewUsageService(missing, nil, zap.NewNop(), true)
	limit, err := deny.LimitFor(context.Background(), "user-1", models.FeatureProjects)
	require.NoError(t, err)
	assert.Equal(t, 0, limit)

	allow := NewUsageService(missing, nil, zap.NewNop(), false)
	limit, err = allow.LimitFor(context.Background(), "user-1", models.FeatureProjects)
	require.NoError(t, err)
	assert.Equal(t, -1, limit)

	configured := usageFixture(models.TierPro, &models.UsageLimit{MonthlyLimit: 10}, 0)
	svc := NewUsageService(configured, nil, zap.NewNop(), true)
	limit, err = svc.LimitFor(context.Background(), "user-1", models.FeatureCompetitors)
	require.NoError(t, err)
	assert.Equal(t, 10, limit)
}

func TestConsumeRecordsUsage(t *testing.T) {
	var recorded []models.UsageRecord
	db := usageFixture(models.TierPro, &models.UsageLimit{MonthlyLimit: 10}, 4)
	db.insertUsageRecord = func(_ context.Context, r *models.UsageRecord) error {
		recorded = append(recorded, *r)
		return nil
	}

	svc := NewUsageService(db, nil, zap.NewNop(), true)
	require.NoError(t, svc.Consume(context.Background(), "user-1", models.FeaturePdfReports, 1))
	require.Len(t, recorded, 1)
	assert.Equal(t, models.FeaturePdfReports, recorded[0].FeatureName)
	assert.Equal(t, 1, recorded[0].Amount)
}

func TestConsumeDeniedReturnsLimitError(t *testing.T) {
	db := usageFixture(models.TierFree, &models.UsageLimit{MonthlyLimit: 3}, 3)
	svc := NewUsageService(db, nil, zap.NewNop(), true)

	err := svc.Consume(context.Background(), "user-1", models.FeatureAudits, 1)
	var limitErr *core.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, models.FeatureAudits, limitErr.Feature)
	assert.Equal(t, 3, limitErr.Used)
	assert.Equal(t, 3, limitErr.Limit)
}

func TestConsumeBumpsCachedCount(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	db := usageFixture(models.TierPro, &models.UsageLimit{MonthlyLimit: 10}, 4)
	svc := NewUsageService(db, c, zap.NewNop(), true)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// First check populates the cache from the count query.
	d, err := svc.CheckLimit(context.Background(), "user-1", models.FeatureAudits, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Used)

	require.NoError(t, svc.Consume(context.Background(), "user-1", models.FeatureAudits, 1))

	val, err := mr.Get("usage:user-1:audits:2025-06")
	require.NoError(t, err)
	assert.Equal(t, "5", val)

	// Subsequent checks read the bumped counter, not the stale fixture.
	d, err = svc.CheckLimit(context.Background(), "user-1", models.FeatureAudits, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, d.Used)
}

func TestMonthStart(t *testing.T) {
	got := monthStart(time.Date(2025, 3, 17, 22, 4, 5, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
}
