package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/services"
)

// SchedulerHandler exposes the sweep operations to the external scheduler
// and cron callers. The same operations run on the internal cron when
// SCHEDULER_ENABLED is set.
type SchedulerHandler struct {
	audits   *services.AuditService
	keywords *services.KeywordService
	pdfs     *services.PdfService
	subs     *services.SubscriptionService
	logger   *zap.Logger
}

func NewSchedulerHandler(audits *services.AuditService, keywords *services.KeywordService, pdfs *services.PdfService, subs *services.SubscriptionService, logger *zap.Logger) *SchedulerHandler {
	return &SchedulerHandler{audits: audits, keywords: keywords, pdfs: pdfs, subs: subs, logger: logger}
}

// VerifyAudits runs the due-check sweep over all active projects.
func (h *SchedulerHandler) VerifyAudits(w http.ResponseWriter, r *http.Request) {
	summary, err := h.audits.VerifyScheduledAudits(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// TrackKeywords runs the rank-tracking sweep over all active projects.
func (h *SchedulerHandler) TrackKeywords(w http.ResponseWriter, r *http.Request) {
	summary, err := h.keywords.TrackAll(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Cleanup purges expired PDF jobs and downgrades lapsed subscriptions.
func (h *SchedulerHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	purged, err := h.pdfs.PurgeExpired(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	downgraded, err := h.subs.DowngradeExpired(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{
		"purged_pdf_jobs":          purged,
		"downgraded_subscriptions": downgraded,
	})
}
