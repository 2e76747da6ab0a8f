package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/metrics"
	"github.com/seopulse/seopulse/internal/models"
	"github.com/seopulse/seopulse/internal/utils"
)

// frequencyWindow maps a project's crawl frequency to the minimum age of the
// latest audit before a new one is due.
var frequencyWindow = map[string]time.Duration{
	models.FrequencyDaily:   24 * time.Hour,
	models.FrequencyWeekly:  7 * 24 * time.Hour,
	models.FrequencyMonthly: 30 * 24 * time.Hour,
}

// AuditService creates audits and hands them to the external crawler
// service. It owns the scheduled due-check sweep.
type AuditService struct {
	db      core.DbClient
	crawler core.CrawlerClient
	usage   *UsageService
	logger  *zap.Logger

	now func() time.Time
}

func NewAuditService(db core.DbClient, crawler core.CrawlerClient, usage *UsageService, logger *zap.Logger) *AuditService {
	return &AuditService{
		db:      db,
		crawler: crawler,
		usage:   usage,
		logger:  logger,
		now:     time.Now,
	}
}

// StartAudit inserts a pending audit and dispatches it. The audit row always
// exists afterwards; on dispatch failure it carries status=failed and the
// upstream error body.
func (s *AuditService) StartAudit(ctx context.Context, project *models.Project, scheduled bool) (*models.Audit, error) {
	audit := &models.Audit{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		UserID:    project.UserID,
		URL:       project.URL,
		Status:    models.StatusPending,
		Scheduled: scheduled,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.CreateAudit(ctx, audit); err != nil {
		return nil, fmt.Errorf("create audit: %w", err)
	}

	err := s.crawler.StartAudit(ctx, core.StartAuditRequest{
		AuditID:    audit.ID,
		ProjectID:  project.ID,
		URL:        project.URL,
		CrawlDepth: project.CrawlDepth,
		Scheduled:  scheduled,
	})
	if err != nil {
		audit.Status = models.StatusFailed
		audit.ErrorMessage = err.Error()
		if updateErr := s.db.UpdateAuditStatus(ctx, audit.ID, models.StatusFailed, err.Error()); updateErr != nil {
			s.logger.Error("failed to mark audit as failed",
				zap.String("audit_id", audit.ID), zap.Error(updateErr))
		}
		metrics.AuditsDispatched.WithLabelValues("failed").Inc()
		return audit, err
	}

	audit.Status = models.StatusProcessing
	if err := s.db.UpdateAuditStatus(ctx, audit.ID, models.StatusProcessing, ""); err != nil {
		return audit, fmt.Errorf("mark audit processing: %w", err)
	}
	metrics.AuditsDispatched.WithLabelValues("dispatched").Inc()
	return audit, nil
}

// IsDue reports whether a project needs a new audit given its latest one.
// A project with no prior audit is always due.
func (s *AuditService) IsDue(project *models.Project, latest *models.Audit) bool {
	if latest == nil {
		return true
	}
	window, ok := frequencyWindow[project.CrawlFrequency]
	if !ok {
		window = frequencyWindow[models.FrequencyWeekly]
	}
	return latest.CreatedAt.Before(s.now().Add(-window))
}

// ProjectResult is the per-project outcome of a verification sweep.
type ProjectResult struct {
	ProjectID string `json:"project_id"`
	Outcome   string `json:"outcome"` // dispatched | skipped_not_due | skipped_quota | failed
	AuditID   string `json:"audit_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// VerifySummary is the response payload of a verification sweep.
type VerifySummary struct {
	Checked    int             `json:"checked"`
	Dispatched int             `json:"dispatched"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Results    []ProjectResult `json:"results"`
}

// VerifyScheduledAudits runs the due-check over every active project and
// dispatches audits for the ones that need them. A failure on one project
// never aborts the rest of the sweep.
func (s *AuditService) VerifyScheduledAudits(ctx context.Context) (*VerifySummary, error) {
	projects, err := s.db.ListActiveProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active projects: %w", err)
	}

	summary := &VerifySummary{Checked: len(projects)}
	for i := range projects {
		project := &projects[i]
		result := s.verifyProject(ctx, project)
		summary.Results = append(summary.Results, result)
		switch result.Outcome {
		case "dispatched":
			summary.Dispatched++
		case "failed":
			summary.Failed++
		default:
			summary.Skipped++
			metrics.AuditsDispatched.WithLabelValues("skipped").Inc()
		}
	}

	s.logger.Info("scheduled audit sweep finished",
		zap.Int("checked", summary.Checked),
		zap.Int("dispatched", summary.Dispatched),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *AuditService) verifyProject(ctx context.Context, project *models.Project) ProjectResult {
	result := ProjectResult{ProjectID: project.ID}

	decision, err := s.usage.CheckLimit(ctx, project.UserID, models.FeatureAudits, 1)
	if err != nil {
		result.Outcome = "failed"
		result.Error = err.Error()
		return result
	}
	if !decision.Allowed {
		result.Outcome = "skipped_quota"
		return result
	}

	latest, err := s.db.LatestAuditForProject(ctx, project.ID)
	if err != nil {
		result.Outcome = "failed"
		result.Error = err.Error()
		return result
	}
	if !s.IsDue(project, latest) {
		result.Outcome = "skipped_not_due"
		return result
	}

	audit, err := s.StartAudit(ctx, project, true)
	if audit != nil {
		result.AuditID = audit.ID
	}
	if err != nil {
		result.Outcome = "failed"
		result.Error = err.Error()
		s.logger.Warn("scheduled audit dispatch failed",
			zap.String("project_id", project.ID), zap.Error(err))
		return result
	}

	if err := s.usage.RecordUsage(ctx, project.UserID, models.FeatureAudits, 1); err != nil {
		s.logger.Warn("failed to record audit usage",
			zap.String("project_id", project.ID), zap.Error(err))
	}
	result.Outcome = "dispatched"
	return result
}

// Complete records the crawler's terminal callback for an audit.
func (s *AuditService) Complete(ctx context.Context, auditID, status string, score *int, report json.RawMessage) error {
	if status != models.StatusCompleted && status != models.StatusFailed {
		return fmt.Errorf("%w: status must be completed or failed", core.ErrValidation)
	}
	audit, err := s.db.GetAuditByID(ctx, auditID)
	if err != nil {
		return err
	}
	if audit == nil {
		return core.ErrNotFound
	}
	if err := s.db.CompleteAudit(ctx, auditID, status, score, report); err != nil {
		return err
	}

	s.notifyCompletion(ctx, audit, status)
	return nil
}

func (s *AuditService) notifyCompletion(ctx context.Context, audit *models.Audit, status string) {
	elapsed := s.now().UTC().Sub(audit.CreatedAt).Milliseconds()

	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    audit.UserID,
		CreatedAt: s.now().UTC(),
	}
	if status == models.StatusCompleted {
		n.Type = "audit_completed"
		n.Title = "Audit completed"
		n.Message = fmt.Sprintf("Audit for %s finished in %s.", audit.URL, utils.FormatDuration(elapsed))
	} else {
		n.Type = "audit_failed"
		n.Title = "Audit failed"
		n.Message = fmt.Sprintf("Audit for %s failed after %s.", audit.URL, utils.FormatDuration(elapsed))
	}

	if err := s.db.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("failed to create audit notification",
			zap.String("audit_id", audit.ID), zap.Error(err))
	}
}
