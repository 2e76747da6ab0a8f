package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/services"
)

// Worker uploads are capped well above any realistic report size.
const maxPdfUploadBytes = 50 << 20

type PdfHandler struct {
	pdfs   *services.PdfService
	logger *zap.Logger
}

func NewPdfHandler(pdfs *services.PdfService, logger *zap.Logger) *PdfHandler {
	return &PdfHandler{pdfs: pdfs, logger: logger}
}

type createPdfRequest struct {
	AuditID    string          `json:"audit_id"`
	Parameters json.RawMessage `json:"parameters"`
}

func (h *PdfHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPdfRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	job, err := h.pdfs.Create(r.Context(), userID(r), req.AuditID, req.Parameters)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, job)
}

func (h *PdfHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.pdfs.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (h *PdfHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.pdfs.Status(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *PdfHandler) ListByAudit(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.pdfs.ListByAudit(r.Context(), userID(r), chi.URLParam(r, "auditID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

func (h *PdfHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.pdfs.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *PdfHandler) Download(w http.ResponseWriter, r *http.Request) {
	body, err := h.pdfs.Download(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="seo-report.pdf"`)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("pdf download interrupted", zap.Error(err))
	}
}

type updatePdfStatusRequest struct {
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	ErrorMessage string `json:"error_message"`
}

// UpdateStatus is the worker's progress callback, authenticated with the
// shared crawler API key.
func (h *PdfHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updatePdfStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	jobID := chi.URLParam(r, "id")
	if err := h.pdfs.UpdateStatus(r.Context(), jobID, req.Status, req.Progress, req.ErrorMessage); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": jobID, "status": req.Status})
}

type updatePdfContentRequest struct {
	Content json.RawMessage `json:"content"`
}

// UpdateContent stores the AI-written report sections produced by the worker.
func (h *PdfHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req updatePdfContentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.pdfs.UpdateContent(r.Context(), chi.URLParam(r, "id"), req.Content); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// UploadArtifact receives the rendered PDF bytes from the worker and stores
// them in object storage.
func (h *PdfHandler) UploadArtifact(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPdfUploadBytes))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.pdfs.AttachArtifact(r.Context(), chi.URLParam(r, "id"), data); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"stored": true})
}
