package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

// fakeDB overrides just the DbClient methods a test needs. Calling an
// un-overridden method panics through the embedded nil interface, which
// makes unexpected database access loud.
type fakeDB struct {
	core.DbClient

	getProfileByID                 func(ctx context.Context, id string) (*models.Profile, error)
	getProfileByPaypalSubscription func(ctx context.Context, subID string) (*models.Profile, error)
	updateSubscription             func(ctx context.Context, userID, tier, status, paypalSubID string, endsAt *time.Time) error
	downgradeExpiredSubscriptions  func(ctx context.Context, now time.Time) (int64, error)

	getProjectByID     func(ctx context.Context, id string) (*models.Project, error)
	listActiveProjects func(ctx context.Context) ([]models.Project, error)

	createAudit           func(ctx context.Context, a *models.Audit) error
	getAuditByID          func(ctx context.Context, id string) (*models.Audit, error)
	latestAuditForProject func(ctx context.Context, projectID string) (*models.Audit, error)
	updateAuditStatus     func(ctx context.Context, id, status, errorMessage string) error
	completeAudit         func(ctx context.Context, id, status string, score *int, report json.RawMessage) error

	createPdfJob       func(ctx context.Context, j *models.PdfGenerationJob) error
	getPdfJob          func(ctx context.Context, id string) (*models.PdfGenerationJob, error)
	updatePdfJobStatus func(ctx context.Context, id, status string, progress int, errorMessage string) error

	getUsageLimit     func(ctx context.Context, planType, featureName string) (*models.UsageLimit, error)
	countUsageSince   func(ctx context.Context, userID, featureName string, since time.Time) (int, error)
	insertUsageRecord func(ctx context.Context, r *models.UsageRecord) error

	insertKeywordRankings func(ctx context.Context, rankings []models.KeywordRanking) error

	insertSubscriptionEvent func(ctx context.Context, e *models.SubscriptionEvent) (bool, error)
	createNotification      func(ctx context.Context, n *models.Notification) error
}

func (f *fakeDB) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	return f.getProfileByID(ctx, id)
}

func (f *fakeDB) GetProfileByPaypalSubscription(ctx context.Context, subID string) (*models.Profile, error) {
	return f.getProfileByPaypalSubscription(ctx, subID)
}

func (f *fakeDB) UpdateSubscription(ctx context.Context, userID, tier, status, paypalSubID string, endsAt *time.Time) error {
	return f.updateSubscription(ctx, userID, tier, status, paypalSubID, endsAt)
}

func (f *fakeDB) DowngradeExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	return f.downgradeExpiredSubscriptions(ctx, now)
}

func (f *fakeDB) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	return f.getProjectByID(ctx, id)
}

func (f *fakeDB) ListActiveProjects(ctx context.Context) ([]models.Project, error) {
	return f.listActiveProjects(ctx)
}

func (f *fakeDB) CreateAudit(ctx context.Context, a *models.Audit) error {
	return f.createAudit(ctx, a)
}

func (f *fakeDB) GetAuditByID(ctx context.Context, id string) (*models.Audit, error) {
	return f.getAuditByID(ctx, id)
}

func (f *fakeDB) LatestAuditForProject(ctx context.Context, projectID string) (*models.Audit, error) {
	return f.latestAuditForProject(ctx, projectID)
}

func (f *fakeDB) UpdateAuditStatus(ctx context.Context, id, status, errorMessage string) error {
	return f.updateAuditStatus(ctx, id, status, errorMessage)
}

func (f *fakeDB) CompleteAudit(ctx context.Context, id, status string, score *int, report json.RawMessage) error {
	return f.completeAudit(ctx, id, status, score, report)
}

func (f *fakeDB) CreatePdfJob(ctx context.Context, j *models.PdfGenerationJob) error {
	return f.createPdfJob(ctx, j)
}

func (f *fakeDB) GetPdfJob(ctx context.Context, id string) (*models.PdfGenerationJob, error) {
	return f.getPdfJob(ctx, id)
}

func (f *fakeDB) UpdatePdfJobStatus(ctx context.Context, id, status string, progress int, errorMessage string) error {
	return f.updatePdfJobStatus(ctx, id, status, progress, errorMessage)
}

func (f *fakeDB) GetUsageLimit(ctx context.Context, planType, featureName string) (*models.UsageLimit, error) {
	return f.getUsageLimit(ctx, planType, featureName)
}

func (f *fakeDB) CountUsageSince(ctx context.Context, userID, featureName string, since time.Time) (int, error) {
	return f.countUsageSince(ctx, userID, featureName, since)
}

func (f *fakeDB) InsertUsageRecord(ctx context.Context, r *models.UsageRecord) error {
	if f.insertUsageRecord == nil {
		return nil
	}
	return f.insertUsageRecord(ctx, r)
}

func (f *fakeDB) InsertKeywordRankings(ctx context.Context, rankings []models.KeywordRanking) error {
	return f.insertKeywordRankings(ctx, rankings)
}

func (f *fakeDB) InsertSubscriptionEvent(ctx context.Context, e *models.SubscriptionEvent) (bool, error) {
	return f.insertSubscriptionEvent(ctx, e)
}

func (f *fakeDB) CreateNotification(ctx context.Context, n *models.Notification) error {
	if f.createNotification == nil {
		return nil
	}
	return f.createNotification(ctx, n)
}

// fakeCrawler records dispatches and optionally fails them.
type fakeCrawler struct {
	auditErr error
	pdfErr   error
	audits   []core.StartAuditRequest
	pdfs     []core.GeneratePdfRequest
}

func (f *fakeCrawler) StartAudit(ctx context.Context, req core.StartAuditRequest) error {
	f.audits = append(f.audits, req)
	return f.auditErr
}

func (f *fakeCrawler) GeneratePdf(ctx context.Context, req core.GeneratePdfRequest) error {
	f.pdfs = append(f.pdfs, req)
	return f.pdfErr
}

// fakeRanks serves canned results per keyword.
type fakeRanks struct {
	results map[string][]core.RankResult
	errs    map[string]error
}

func (f *fakeRanks) Search(ctx context.Context, keyword string, limit int) ([]core.RankResult, error) {
	if err, ok := f.errs[keyword]; ok {
		return nil, err
	}
	return f.results[keyword], nil
}

// fakeVerifier approves or rejects every webhook.
type fakeVerifier struct {
	verified bool
	err      error
}

func (f *fakeVerifier) VerifyWebhookSignature(ctx context.Context, headers core.WebhookHeaders, rawEvent json.RawMessage) (bool, error) {
	return f.verified, f.err
}

// fakeLLM answers every prompt with a fixed response.
type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.response, f.err
}
