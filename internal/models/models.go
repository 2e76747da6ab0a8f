package models

import (
	"encoding/json"
	"time"
)

// Profile represents an authenticated user of the system, including the
// subscription state that drives feature gating.
type Profile struct {
	ID                   string     `db:"id" json:"id"`
	Email                string     `db:"email" json:"email"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	FullName             string     `db:"full_name" json:"full_name"`
	SubscriptionTier     string     `db:"subscription_tier" json:"subscription_tier"`     // free | pro | agency
	SubscriptionStatus   string     `db:"subscription_status" json:"subscription_status"` // active | cancelled | past_due
	PaypalSubscriptionID string     `db:"paypal_subscription_id" json:"-"`
	SubscriptionEndsAt   *time.Time `db:"subscription_ends_at" json:"subscription_ends_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// Project is a site a user wants audited on a schedule.
type Project struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Name             string    `db:"name" json:"name"`
	URL              string    `db:"url" json:"url"`
	CrawlFrequency   string    `db:"crawl_frequency" json:"crawl_frequency"` // daily | weekly | monthly
	CrawlDepth       int       `db:"crawl_depth" json:"crawl_depth"`
	Keywords         []string  `db:"keywords" json:"keywords"`
	Status           string    `db:"status" json:"status"` // active | paused | archived
	SubscriptionTier string    `db:"subscription_tier" json:"subscription_tier"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Audit is one crawl/analysis run for a project. The actual crawling is done
// by the external crawler service; this row only tracks its lifecycle.
// Status moves forward only: pending -> processing -> completed | failed.
type Audit struct {
	ID           string          `db:"id" json:"id"`
	ProjectID    string          `db:"project_id" json:"project_id"`
	UserID       string          `db:"user_id" json:"user_id"`
	URL          string          `db:"url" json:"url"`
	Status       string          `db:"status" json:"status"`
	Score        *int            `db:"score" json:"score,omitempty"`
	Report       json.RawMessage `db:"report" json:"report,omitempty"`
	Scheduled    bool            `db:"scheduled" json:"scheduled"`
	ErrorMessage string          `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// PdfGenerationJob tracks one PDF export request. Rendering and AI content
// generation happen in an external worker that drives the status forward
// through the update endpoints.
type PdfGenerationJob struct {
	ID           string          `db:"id" json:"id"`
	AuditID      string          `db:"audit_id" json:"audit_id"`
	UserID       string          `db:"user_id" json:"user_id"`
	Status       string          `db:"status" json:"status"` // pending | processing | completed | failed
	Progress     int             `db:"progress" json:"progress"`
	Parameters   json.RawMessage `db:"parameters" json:"parameters,omitempty"` // template, client info, colors, notes
	Content      json.RawMessage `db:"content" json:"content,omitempty"`       // AI-generated report sections
	ArtifactKey  string          `db:"artifact_key" json:"-"`
	ErrorMessage string          `db:"error_message" json:"error_message,omitempty"`
	ExpiresAt    time.Time       `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Competitor is a rival site tracked against a project. Inserts are gated by
// per-tier count limits.
type Competitor struct {
	ID        string          `db:"id" json:"id"`
	ProjectID string          `db:"project_id" json:"project_id"`
	URL       string          `db:"url" json:"url"`
	Name      string          `db:"name" json:"name"`
	Status    string          `db:"status" json:"status"` // pending | in_progress | completed | failed
	Analysis  json.RawMessage `db:"analysis" json:"analysis,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Todo is an action item attached to a project, usually generated from audit
// recommendations.
type Todo struct {
	ID          string     `db:"id" json:"id"`
	ProjectID   string     `db:"project_id" json:"project_id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	Priority    string     `db:"priority" json:"priority"` // low | medium | high
	Status      string     `db:"status" json:"status"`     // open | in_progress | done
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Notification is an in-app message for a user.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UsageLimit maps (plan tier, feature) to a monthly quota. A limit of -1
// means unlimited.
type UsageLimit struct {
	PlanType     string `db:"plan_type" json:"plan_type"`
	FeatureName  string `db:"feature_name" json:"feature_name"`
	MonthlyLimit int    `db:"monthly_limit" json:"monthly_limit"`
}

// UsageRecord is one unit (or more) of feature consumption, counted within
// the current calendar month by the limit checker.
type UsageRecord struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FeatureName string    `db:"feature_name" json:"feature_name"`
	Amount      int       `db:"amount" json:"amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// KeywordRanking is one append-only data point from the weekly rank tracker.
type KeywordRanking struct {
	ID           string    `db:"id" json:"id"`
	ProjectID    string    `db:"project_id" json:"project_id"`
	Keyword      string    `db:"keyword" json:"keyword"`
	Position     int       `db:"position" json:"position"` // 0 = not found in top 100
	URL          string    `db:"url" json:"url"`
	SearchEngine string    `db:"search_engine" json:"search_engine"`
	CheckedAt    time.Time `db:"checked_at" json:"checked_at"`
}

// SubscriptionEvent records a processed PayPal webhook event. The unique
// event id is the idempotency key for webhook delivery retries.
type SubscriptionEvent struct {
	ID          string          `db:"id" json:"id"` // PayPal event id
	EventType   string          `db:"event_type" json:"event_type"`
	Payload     json.RawMessage `db:"payload" json:"payload,omitempty"`
	ProcessedAt time.Time       `db:"processed_at" json:"processed_at"`
}
