package core

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/seopulse/seopulse/internal/models"
)

// DbClient defines all persistence operations the services need. It
// abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	// Profiles
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateSubscription(ctx context.Context, userID, tier, status, paypalSubID string, endsAt *time.Time) error
	GetProfileByPaypalSubscription(ctx context.Context, subscriptionID string) (*models.Profile, error)
	DowngradeExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error)

	// Projects
	CreateProject(ctx context.Context, p *models.Project) error
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	ListProjectsByUser(ctx context.Context, userID string) ([]models.Project, error)
	ListActiveProjects(ctx context.Context) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	// Audits
	CreateAudit(ctx context.Context, a *models.Audit) error
	GetAuditByID(ctx context.Context, id string) (*models.Audit, error)
	ListAuditsByProject(ctx context.Context, projectID string, limit int) ([]models.Audit, error)
	LatestAuditForProject(ctx context.Context, projectID string) (*models.Audit, error)
	UpdateAuditStatus(ctx context.Context, id, status, errorMessage string) error
	CompleteAudit(ctx context.Context, id, status string, score *int, report json.RawMessage) error

	// PDF generation jobs
	CreatePdfJob(ctx context.Context, j *models.PdfGenerationJob) error
	GetPdfJob(ctx context.Context, id string) (*models.PdfGenerationJob, error)
	ListPdfJobsByAudit(ctx context.Context, auditID string) ([]models.PdfGenerationJob, error)
	UpdatePdfJobStatus(ctx context.Context, id, status string, progress int, errorMessage string) error
	UpdatePdfJobContent(ctx context.Context, id string, content json.RawMessage) error
	SetPdfJobArtifact(ctx context.Context, id, artifactKey string) error
	DeletePdfJob(ctx context.Context, id string) error
	PurgeExpiredPdfJobs(ctx context.Context, now time.Time) (int64, error)

	// Competitors
	CreateCompetitor(ctx context.Context, c *models.Competitor) error
	ListCompetitorsByProject(ctx context.Context, projectID string) ([]models.Competitor, error)
	CountCompetitorsByProject(ctx context.Context, projectID string) (int, error)
	UpdateCompetitorStatus(ctx context.Context, projectID, id, status string, analysis json.RawMessage) error
	DeleteCompetitor(ctx context.Context, projectID, id string) error

	// Todos
	CreateTodo(ctx context.Context, t *models.Todo) error
	ListTodosByProject(ctx context.Context, projectID string) ([]models.Todo, error)
	UpdateTodo(ctx context.Context, t *models.Todo) error
	BatchUpdateTodoStatus(ctx context.Context, userID string, ids []string, status string) (int64, error)
	BatchUpdateTodoPriority(ctx context.Context, userID string, ids []string, priority string) (int64, error)
	BatchDeleteTodos(ctx context.Context, userID string, ids []string) (int64, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)

	// Usage limits
	GetUsageLimit(ctx context.Context, planType, featureName string) (*models.UsageLimit, error)
	CountUsageSince(ctx context.Context, userID, featureName string, since time.Time) (int, error)
	InsertUsageRecord(ctx context.Context, r *models.UsageRecord) error

	// Keyword rankings
	InsertKeywordRankings(ctx context.Context, rankings []models.KeywordRanking) error
	ListKeywordHistory(ctx context.Context, projectID, keyword string, limit int) ([]models.KeywordRanking, error)

	// Subscription events (webhook idempotency)
	InsertSubscriptionEvent(ctx context.Context, e *models.SubscriptionEvent) (bool, error)

	Close() error
}

// LLMProvider generates text from a prompt pair. Implemented by the Azure
// OpenAI chat-completions client and the Gemini client.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// RankResult is one organic search result from the rank lookup provider.
type RankResult struct {
	Position int
	Title    string
	Link     string
}

// RankProvider looks up organic search results for a keyword.
type RankProvider interface {
	Search(ctx context.Context, keyword string, limit int) ([]RankResult, error)
}

// StartAuditRequest is the payload forwarded to the external crawler service.
type StartAuditRequest struct {
	AuditID    string `json:"audit_id"`
	ProjectID  string `json:"project_id"`
	URL        string `json:"url"`
	CrawlDepth int    `json:"crawl_depth"`
	Scheduled  bool   `json:"scheduled"`
}

// GeneratePdfRequest asks the external worker to render a PDF for a job.
type GeneratePdfRequest struct {
	JobID      string          `json:"job_id"`
	AuditID    string          `json:"audit_id"`
	Report     json.RawMessage `json:"report,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// CrawlerClient talks to the external crawler/worker service. The caller is
// responsible for recording the outcome on the audit or job row.
type CrawlerClient interface {
	StartAudit(ctx context.Context, req StartAuditRequest) error
	GeneratePdf(ctx context.Context, req GeneratePdfRequest) error
}

// ObjectClient stores and retrieves finished PDF artifacts.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, bucket, key string) error
}

// WebhookHeaders carries the PayPal transmission headers needed to verify a
// webhook delivery.
type WebhookHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

// WebhookVerifier checks webhook signatures with the billing provider.
type WebhookVerifier interface {
	VerifyWebhookSignature(ctx context.Context, headers WebhookHeaders, rawEvent json.RawMessage) (bool, error)
}

// Cache is a small get/set/delete cache used for usage counters and job
// status reads. Implemented on Redis; a miss returns ("", false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key string, by int64) (int64, bool, error)
}
