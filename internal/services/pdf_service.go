package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/metrics"
	"github.com/seopulse/seopulse/internal/models"
)

const (
	pdfJobTTL         = 7 * 24 * time.Hour
	pdfStatusCacheTTL = 3 * time.Second
)

// PdfService owns the PDF generation job lifecycle. The actual rendering
// and AI content generation run in the external worker, which drives jobs
// forward through UpdateStatus/UpdateContent and uploads the finished file.
type PdfService struct {
	db      core.DbClient
	crawler core.CrawlerClient
	storage core.ObjectClient
	cache   core.Cache
	usage   *UsageService
	logger  *zap.Logger
	bucket  string

	now func() time.Time
}

func NewPdfService(db core.DbClient, crawler core.CrawlerClient, storage core.ObjectClient, cache core.Cache, usage *UsageService, logger *zap.Logger, bucket string) *PdfService {
	return &PdfService{
		db:      db,
		crawler: crawler,
		storage: storage,
		cache:   cache,
		usage:   usage,
		logger:  logger,
		bucket:  bucket,
		now:     time.Now,
	}
}

// Create inserts a pending job for an audit the user owns and asks the
// worker to start rendering. Cross-tenant audits read as not found.
func (s *PdfService) Create(ctx context.Context, userID, auditID string, parameters json.RawMessage) (*models.PdfGenerationJob, error) {
	audit, err := s.db.GetAuditByID(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("load audit: %w", err)
	}
	if audit == nil || audit.UserID != userID {
		return nil, core.ErrNotFound
	}

	if err := s.usage.Consume(ctx, userID, models.FeaturePdfReports, 1); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &models.PdfGenerationJob{
		ID:         uuid.NewString(),
		AuditID:    auditID,
		UserID:     userID,
		Status:     models.StatusPending,
		Progress:   0,
		Parameters: parameters,
		ExpiresAt:  now.Add(pdfJobTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.CreatePdfJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create pdf job: %w", err)
	}
	metrics.PdfJobTransitions.WithLabelValues(models.StatusPending).Inc()

	err = s.crawler.GeneratePdf(ctx, core.GeneratePdfRequest{
		JobID:      job.ID,
		AuditID:    auditID,
		Report:     audit.Report,
		Parameters: parameters,
	})
	if err != nil {
		// The job row stays pending; the worker may still pick it up, and
		// the client sees the dispatch error immediately.
		s.logger.Warn("pdf generation dispatch failed",
			zap.String("job_id", job.ID), zap.Error(err))
		return job, err
	}
	return job, nil
}

// UpdateStatus applies a forward-only transition driven by the worker.
func (s *PdfService) UpdateStatus(ctx context.Context, jobID, status string, progress int, errorMessage string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", core.ErrValidation, status)
	}
	job, err := s.db.GetPdfJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load pdf job: %w", err)
	}
	if job == nil {
		return core.ErrNotFound
	}
	if !models.CanTransition(job.Status, status) {
		return fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, job.Status, status)
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	if err := s.db.UpdatePdfJobStatus(ctx, jobID, status, progress, errorMessage); err != nil {
		return err
	}
	metrics.PdfJobTransitions.WithLabelValues(status).Inc()
	s.invalidateStatus(ctx, jobID)
	return nil
}

// UpdateContent attaches the AI-generated report sections produced by the
// worker.
func (s *PdfService) UpdateContent(ctx context.Context, jobID string, content json.RawMessage) error {
	job, err := s.db.GetPdfJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load pdf job: %w", err)
	}
	if job == nil {
		return core.ErrNotFound
	}
	return s.db.UpdatePdfJobContent(ctx, jobID, content)
}

// AttachArtifact stores the rendered PDF and records its object key.
func (s *PdfService) AttachArtifact(ctx context.Context, jobID string, pdf []byte) error {
	job, err := s.db.GetPdfJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load pdf job: %w", err)
	}
	if job == nil {
		return core.ErrNotFound
	}

	key := fmt.Sprintf("reports/%s/%s.pdf", job.UserID, job.ID)
	if _, err := s.storage.UploadFile(ctx, s.bucket, key, pdf, "application/pdf"); err != nil {
		return fmt.Errorf("store pdf artifact: %w", err)
	}
	return s.db.SetPdfJobArtifact(ctx, jobID, key)
}

// Get returns a job owned by the user. Expired jobs read as not found.
func (s *PdfService) Get(ctx context.Context, userID, jobID string) (*models.PdfGenerationJob, error) {
	job, err := s.db.GetPdfJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load pdf job: %w", err)
	}
	if job == nil || job.UserID != userID {
		return nil, core.ErrNotFound
	}
	if s.now().UTC().After(job.ExpiresAt) {
		return nil, core.ErrNotFound
	}
	return job, nil
}

// StatusSnapshot is the cached shape served to polling clients.
type StatusSnapshot struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Status serves the polling endpoint through a short-lived cache so a few
// seconds of client polling costs one database read.
func (s *PdfService) Status(ctx context.Context, userID, jobID string) (*StatusSnapshot, error) {
	key := "pdfstatus:" + jobID
	if s.cache != nil {
		if val, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var snap StatusSnapshot
			if json.Unmarshal([]byte(val), &snap) == nil {
				return &snap, nil
			}
		}
	}

	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	snap := &StatusSnapshot{
		ID:           job.ID,
		Status:       job.Status,
		Progress:     job.Progress,
		ErrorMessage: job.ErrorMessage,
	}
	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, key, string(data), pdfStatusCacheTTL); err != nil {
				s.logger.Warn("pdf status cache write failed", zap.Error(err))
			}
		}
	}
	return snap, nil
}

func (s *PdfService) ListByAudit(ctx context.Context, userID, auditID string) ([]models.PdfGenerationJob, error) {
	audit, err := s.db.GetAuditByID(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("load audit: %w", err)
	}
	if audit == nil || audit.UserID != userID {
		return nil, core.ErrNotFound
	}
	return s.db.ListPdfJobsByAudit(ctx, auditID)
}

func (s *PdfService) Delete(ctx context.Context, userID, jobID string) error {
	job, err := s.db.GetPdfJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load pdf job: %w", err)
	}
	if job == nil || job.UserID != userID {
		return core.ErrNotFound
	}
	if job.ArtifactKey != "" {
		if err := s.storage.DeleteFile(ctx, s.bucket, job.ArtifactKey); err != nil {
			s.logger.Warn("artifact delete failed",
				zap.String("job_id", jobID), zap.Error(err))
		}
	}
	return s.db.DeletePdfJob(ctx, jobID)
}

// Download streams the rendered PDF for a completed job.
func (s *PdfService) Download(ctx context.Context, userID, jobID string) (io.ReadCloser, error) {
	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.StatusCompleted || job.ArtifactKey == "" {
		return nil, fmt.Errorf("%w: report not ready", core.ErrValidation)
	}
	return s.storage.GetObjectReader(ctx, s.bucket, job.ArtifactKey)
}

// PurgeExpired removes jobs past their 7-day expiry. Run by the daily sweep.
func (s *PdfService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.db.PurgeExpiredPdfJobs(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("purged expired pdf jobs", zap.Int64("count", n))
	}
	return n, nil
}

func (s *PdfService) invalidateStatus(ctx context.Context, jobID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, "pdfstatus:"+jobID); err != nil {
		s.logger.Warn("pdf status cache invalidation failed", zap.Error(err))
	}
}
