package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/services"
)

type AIHandler struct {
	ai     *services.AIService
	logger *zap.Logger
}

func NewAIHandler(ai *services.AIService, logger *zap.Logger) *AIHandler {
	return &AIHandler{ai: ai, logger: logger}
}

type generateContentRequest struct {
	AuditID string `json:"audit_id"`
}

func (h *AIHandler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	var req generateContentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	content, err := h.ai.GenerateReportContent(r.Context(), userID(r), req.AuditID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, content)
}

type keywordSuggestionsRequest struct {
	ProjectID string `json:"project_id"`
	Count     int    `json:"count"`
}

func (h *AIHandler) KeywordSuggestions(w http.ResponseWriter, r *http.Request) {
	var req keywordSuggestionsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	suggestions, err := h.ai.SuggestKeywords(r.Context(), userID(r), req.ProjectID, req.Count)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (h *AIHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req generateContentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	text, err := h.ai.Recommendations(r.Context(), userID(r), req.AuditID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"recommendations": text})
}

func (h *AIHandler) TodoRecommendations(w http.ResponseWriter, r *http.Request) {
	var req generateContentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	todos, err := h.ai.SuggestTodos(r.Context(), userID(r), req.AuditID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"todos": todos})
}
