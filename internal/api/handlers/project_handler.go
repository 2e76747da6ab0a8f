package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
	"github.com/seopulse/seopulse/internal/services"
)

type ProjectHandler struct {
	db       core.DbClient
	audits   *services.AuditService
	keywords *services.KeywordService
	usage    *services.UsageService
	logger   *zap.Logger
}

func NewProjectHandler(db core.DbClient, audits *services.AuditService, keywords *services.KeywordService, usage *services.UsageService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{db: db, audits: audits, keywords: keywords, usage: usage, logger: logger}
}

type projectRequest struct {
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	CrawlFrequency string   `json:"crawl_frequency"`
	CrawlDepth     int      `json:"crawl_depth"`
	Keywords       []string `json:"keywords"`
	Status         string   `json:"status"`
}

func (req *projectRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.URL) == "" {
		return core.ErrValidation
	}
	switch req.CrawlFrequency {
	case "", models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
	default:
		return core.ErrValidation
	}
	return nil
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.CrawlFrequency == "" {
		req.CrawlFrequency = models.FrequencyWeekly
	}
	if req.CrawlDepth <= 0 {
		req.CrawlDepth = 2
	}

	uid := userID(r)
	profile, err := h.db.GetProfileByID(r.Context(), uid)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if profile == nil {
		respondError(w, h.logger, core.ErrNotFound)
		return
	}

	// The project cap is a live count per user, not a monthly quota.
	limit, err := h.usage.LimitFor(r.Context(), uid, models.FeatureProjects)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if limit != -1 {
		existing, err := h.db.ListProjectsByUser(r.Context(), uid)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if len(existing) >= limit {
			respondError(w, h.logger, &core.LimitExceededError{
				Feature: models.FeatureProjects, Used: len(existing), Limit: limit,
			})
			return
		}
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:               uuid.NewString(),
		UserID:           uid,
		Name:             strings.TrimSpace(req.Name),
		URL:              strings.TrimSpace(req.URL),
		CrawlFrequency:   req.CrawlFrequency,
		CrawlDepth:       req.CrawlDepth,
		Keywords:         req.Keywords,
		Status:           "active",
		SubscriptionTier: profile.SubscriptionTier,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.db.CreateProject(r.Context(), project); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.ListProjectsByUser(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req projectRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, h.logger, err)
		return
	}

	project.Name = strings.TrimSpace(req.Name)
	project.URL = strings.TrimSpace(req.URL)
	if req.CrawlFrequency != "" {
		project.CrawlFrequency = req.CrawlFrequency
	}
	if req.CrawlDepth > 0 {
		project.CrawlDepth = req.CrawlDepth
	}
	if req.Keywords != nil {
		project.Keywords = req.Keywords
	}
	switch req.Status {
	case "active", "paused", "archived":
		project.Status = req.Status
	case "":
	default:
		respondError(w, h.logger, core.ErrValidation)
		return
	}
	project.UpdatedAt = time.Now().UTC()

	if err := h.db.UpdateProject(r.Context(), project); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.db.DeleteProject(r.Context(), project.ID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// StartAudit runs a manual (non-scheduled) audit for a project the user owns.
func (h *ProjectHandler) StartAudit(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.usage.Consume(r.Context(), project.UserID, models.FeatureAudits, 1); err != nil {
		respondError(w, h.logger, err)
		return
	}

	audit, err := h.audits.StartAudit(r.Context(), project, false)
	if err != nil {
		// The audit row exists with status=failed; surface the upstream error.
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, audit)
}

func (h *ProjectHandler) ListAudits(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	audits, err := h.db.ListAuditsByProject(r.Context(), project.ID, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, audits)
}

// KeywordHistory serves the rank-tracking data points for one project.
func (h *ProjectHandler) KeywordHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := h.keywords.History(r.Context(), userID(r), chi.URLParam(r, "id"), r.URL.Query().Get("keyword"), limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// ownedProject loads the project in the URL and enforces ownership.
// Cross-tenant reads come back as not found.
func (h *ProjectHandler) ownedProject(r *http.Request) (*models.Project, error) {
	project, err := h.db.GetProjectByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID(r) {
		return nil, core.ErrNotFound
	}
	return project, nil
}
