package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/services"
)

type AuditHandler struct {
	db     core.DbClient
	audits *services.AuditService
	logger *zap.Logger
}

func NewAuditHandler(db core.DbClient, audits *services.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{db: db, audits: audits, logger: logger}
}

func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	audit, err := h.db.GetAuditByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if audit == nil || audit.UserID != userID(r) {
		respondError(w, h.logger, core.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, audit)
}

type completeAuditRequest struct {
	Status string          `json:"status"` // completed | failed
	Score  *int            `json:"score"`
	Report json.RawMessage `json:"report"`
}

// Complete is the crawler service's terminal callback. It is authenticated
// with the shared crawler API key, not a user token.
func (h *AuditHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeAuditRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	auditID := chi.URLParam(r, "id")
	if err := h.audits.Complete(r.Context(), auditID, req.Status, req.Score, req.Report); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": auditID, "status": req.Status})
}
