package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
	"github.com/seopulse/seopulse/internal/services"
)

type CompetitorHandler struct {
	db     core.DbClient
	usage  *services.UsageService
	logger *zap.Logger
}

func NewCompetitorHandler(db core.DbClient, usage *services.UsageService, logger *zap.Logger) *CompetitorHandler {
	return &CompetitorHandler{db: db, usage: usage, logger: logger}
}

type competitorRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Create adds a competitor to a project. Unlike monthly quotas, the
// competitor limit is a per-project count: deleting one frees a slot.
func (h *CompetitorHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req competitorRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(w, h.logger, core.ErrValidation)
		return
	}

	limit, err := h.usage.LimitFor(r.Context(), project.UserID, models.FeatureCompetitors)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if limit != -1 {
		count, err := h.db.CountCompetitorsByProject(r.Context(), project.ID)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if count >= limit {
			respondError(w, h.logger, &core.LimitExceededError{
				Feature: models.FeatureCompetitors, Used: count, Limit: limit,
			})
			return
		}
	}

	now := time.Now().UTC()
	competitor := &models.Competitor{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		URL:       strings.TrimSpace(req.URL),
		Name:      strings.TrimSpace(req.Name),
		Status:    models.CompetitorPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.db.CreateCompetitor(r.Context(), competitor); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, competitor)
}

func (h *CompetitorHandler) List(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	competitors, err := h.db.ListCompetitorsByProject(r.Context(), project.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, competitors)
}

type competitorStatusRequest struct {
	Status   string          `json:"status"`
	Analysis json.RawMessage `json:"analysis"`
}

// UpdateStatus is called by the analysis worker when a competitor crawl
// finishes or fails. The update is scoped to the project in the callback URL
// so a replayed callback cannot touch an unrelated competitor.
func (h *CompetitorHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req competitorStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	switch req.Status {
	case models.CompetitorInProgress, models.CompetitorCompleted, models.CompetitorFailed:
	default:
		respondError(w, h.logger, core.ErrValidation)
		return
	}

	projectID := chi.URLParam(r, "id")
	competitorID := chi.URLParam(r, "competitorID")
	competitors, err := h.db.ListCompetitorsByProject(r.Context(), projectID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	known := false
	for i := range competitors {
		if competitors[i].ID == competitorID {
			known = true
			break
		}
	}
	if !known {
		respondError(w, h.logger, core.ErrNotFound)
		return
	}

	if err := h.db.UpdateCompetitorStatus(r.Context(), projectID, competitorID, req.Status, req.Analysis); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *CompetitorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.db.DeleteCompetitor(r.Context(), project.ID, chi.URLParam(r, "competitorID")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *CompetitorHandler) ownedProject(r *http.Request) (*models.Project, error) {
	project, err := h.db.GetProjectByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID(r) {
		return nil, core.ErrNotFound
	}
	return project, nil
}
