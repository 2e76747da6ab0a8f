package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

func TestIsDue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		frequency string
		latestAge time.Duration
		noPrior   bool
		want      bool
	}{
		{name: "no prior audit is always due", frequency: models.FrequencyWeekly, noPrior: true, want: true},
		{name: "weekly, 8 days old", frequency: models.FrequencyWeekly, latestAge: 8 * 24 * time.Hour, want: true},
		{name: "weekly, 6 days old", frequency: models.FrequencyWeekly, latestAge: 6 * 24 * time.Hour, want: false},
		{name: "daily, 25 hours old", frequency: models.FrequencyDaily, latestAge: 25 * time.Hour, want: true},
		{name: "daily, 23 hours old", frequency: models.FrequencyDaily, latestAge: 23 * time.Hour, want: false},
		{name: "monthly, 31 days old", frequency: models.FrequencyMonthly, latestAge: 31 * 24 * time.Hour, want: true},
		{name: "unknown frequency falls back to weekly", frequency: "hourly", latestAge: 8 * 24 * time.Hour, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuditService(nil, nil, nil, zap.NewNop())
			svc.now = func() time.Time { return now }

			project := &models.Project{CrawlFrequency: tt.frequency}
			var latest *models.Audit
			if !tt.noPrior {
				latest = &models.Audit{CreatedAt: now.Add(-tt.latestAge)}
			}
			assert.Equal(t, tt.want, svc.IsDue(project, latest))
		})
	}
}

func TestStartAuditDispatchFailure(t *testing.T) {
	var statusUpdates []string
	db := &fakeDB{
		createAudit: func(_ context.Context, a *models.Audit) error { return nil },
		updateAuditStatus: func(_ context.Context, _, status, errorMessage string) error {
			statusUpdates = append(statusUpdates, status)
			return nil
		},
	}
	crawler := &fakeCrawler{auditErr: errors.New("crawler down")}
	svc := NewAuditService(db, crawler, nil, zap.NewNop())

	project := &models.Project{ID: "p1", UserID: "u1", URL: "https://example.com"}
	audit, err := svc.StartAudit(context.Background(), project, false)
	require.Error(t, err)
	require.NotNil(t, audit)
	assert.Equal(t, models.StatusFailed, audit.Status)
	assert.Contains(t, audit.ErrorMessage, "crawler down")
	assert.Equal(t, []string{models.StatusFailed}, statusUpdates)
}

func TestStartAuditMovesToProcessing(t *testing.T) {
	var statusUpdates []string
	db := &fakeDB{
		createAudit: func(_ context.Context, a *models.Audit) error { return nil },
		updateAuditStatus: func(_ context.Context, _, status, _ string) error {
			statusUpdates = append(statusUpdates, status)
			return nil
		},
	}
	crawler := &fakeCrawler{}
	svc := NewAuditService(db, crawler, nil, zap.NewNop())

	project := &models.Project{ID: "p1", UserID: "u1", URL: "https://example.com", CrawlDepth: 3}
	audit, err := svc.StartAudit(context.Background(), project, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, audit.Status)
	assert.Equal(t, []string{models.StatusProcessing}, statusUpdates)

	require.Len(t, crawler.audits, 1)
	assert.Equal(t, "p1", crawler.audits[0].ProjectID)
	assert.Equal(t, 3, crawler.audits[0].CrawlDepth)
	assert.True(t, crawler.audits[0].Scheduled)
}

func TestVerifyScheduledAudits(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	projects := []models.Project{
		{ID: "due", UserID: "u1", URL: "https://due.example", CrawlFrequency: models.FrequencyWeekly},
		{ID: "fresh", UserID: "u1", URL: "https://fresh.example", CrawlFrequency: models.FrequencyWeekly},
		{ID: "over-quota", UserID: "u2", URL: "https://quota.example", CrawlFrequency: models.FrequencyWeekly},
	}

	db := &fakeDB{
		listActiveProjects: func(_ context.Context) ([]models.Project, error) { return projects, nil },
		getProfileByID: func(_ context.Context, id string) (*models.Profile, error) {
			tier := models.TierPro
			if id == "u2" {
				tier = models.TierFree
			}
			return &models.Profile{ID: id, SubscriptionTier: tier}, nil
		},
		getUsageLimit: func(_ context.Context, tier, _ string) (*models.UsageLimit, error) {
			if tier == models.TierFree {
				return &models.UsageLimit{MonthlyLimit: 0}, nil
			}
			return &models.UsageLimit{MonthlyLimit: -1}, nil
		},
		countUsageSince: func(_ context.Context, _, _ string, _ time.Time) (int, error) { return 0, nil },
		latestAuditForProject: func(_ context.Context, projectID string) (*models.Audit, error) {
			if projectID == "fresh" {
				return &models.Audit{CreatedAt: now.Add(-time.Hour)}, nil
			}
			return nil, nil
		},
		createAudit:       func(_ context.Context, _ *models.Audit) error { return nil },
		updateAuditStatus: func(_ context.Context, _, _, _ string) error { return nil },
	}

	usage := NewUsageService(db, nil, zap.NewNop(), true)
	usage.now = func() time.Time { return now }
	crawler := &fakeCrawler{}
	svc := NewAuditService(db, crawler, usage, zap.NewNop())
	svc.now = func() time.Time { return now }

	summary, err := svc.VerifyScheduledAudits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Dispatched)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	outcomes := map[string]string{}
	for _, r := range summary.Results {
		outcomes[r.ProjectID] = r.Outcome
	}
	assert.Equal(t, "dispatched", outcomes["due"])
	assert.Equal(t, "skipped_not_due", outcomes["fresh"])
	assert.Equal(t, "skipped_quota", outcomes["over-quota"])
	require.Len(t, crawler.audits, 1)
	assert.Equal(t, "due", crawler.audits[0].ProjectID)
}

func TestCompleteNotifiesWithElapsedTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	var captured *models.Notification
	db := &fakeDB{
		getAuditByID: func(_ context.Context, id string) (*models.Audit, error) {
			return &models.Audit{
				ID:        id,
				UserID:    "u1",
				URL:       "https://example.com",
				Status:    models.StatusProcessing,
				CreatedAt: now.Add(-90 * time.Second),
			}, nil
		},
		completeAudit: func(_ context.Context, _, _ string, _ *int, _ json.RawMessage) error { return nil },
		createNotification: func(_ context.Context, n *models.Notification) error {
			captured = n
			return nil
		},
	}
	svc := NewAuditService(db, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return now }

	score := 87
	err := svc.Complete(context.Background(), "a1", models.StatusCompleted, &score, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "audit_completed", captured.Type)
	assert.Equal(t, "u1", captured.UserID)
	assert.Contains(t, captured.Message, "1m 30s")
}

func TestCompleteRejectsNonTerminalStatus(t *testing.T) {
	svc := NewAuditService(&fakeDB{}, nil, nil, zap.NewNop())
	err := svc.Complete(context.Background(), "a1", models.StatusProcessing, nil, nil)
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestVerifySweepIsolatesFailures(t *testing.T) {
	projects := []models.Project{
		{ID: "bad", UserID: "u1", URL: "https://bad.example", CrawlFrequency: models.FrequencyWeekly},
		{ID: "good", UserID: "u1", URL: "https://good.example", CrawlFrequency: models.FrequencyWeekly},
	}

	db := &fakeDB{
		listActiveProjects: func(_ context.Context) ([]models.Project, error) { return projects, nil },
		getProfileByID: func(_ context.Context, id string) (*models.Profile, error) {
			return &models.Profile{ID: id, SubscriptionTier: models.TierAgency}, nil
		},
		getUsageLimit: func(_ context.Context, _, _ string) (*models.UsageLimit, error) {
			return &models.UsageLimit{MonthlyLimit: -1}, nil
		},
		latestAuditForProject: func(_ context.Context, projectID string) (*models.Audit, error) {
			if projectID == "bad" {
				return nil, errors.New("db hiccup")
			}
			return nil, nil
		},
		createAudit:       func(_ context.Context, _ *models.Audit) error { return nil },
		updateAuditStatus: func(_ context.Context, _, _, _ string) error { return nil },
	}

	usage := NewUsageService(db, nil, zap.NewNop(), true)
	svc := NewAuditService(db, &fakeCrawler{}, usage, zap.NewNop())

	summary, err := svc.VerifyScheduledAudits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Dispatched)
}
