package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

type TodoHandler struct {
	db     core.DbClient
	logger *zap.Logger
}

func NewTodoHandler(db core.DbClient, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{db: db, logger: logger}
}

type todoRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

func validPriority(p string) bool {
	return p == "low" || p == "medium" || p == "high"
}

func validTodoStatus(s string) bool {
	return s == "open" || s == "in_progress" || s == "done"
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req todoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, h.logger, core.ErrValidation)
		return
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if !validPriority(req.Priority) {
		respondError(w, h.logger, core.ErrValidation)
		return
	}

	now := time.Now().UTC()
	todo := &models.Todo{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		UserID:      project.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Priority:    req.Priority,
		Status:      "open",
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.db.CreateTodo(r.Context(), todo); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, todo)
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	todos, err := h.db.ListTodosByProject(r.Context(), project.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, todos)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req todoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Priority != "" && !validPriority(req.Priority) {
		respondError(w, h.logger, core.ErrValidation)
		return
	}
	if req.Status != "" && !validTodoStatus(req.Status) {
		respondError(w, h.logger, core.ErrValidation)
		return
	}

	todos, err := h.db.ListTodosByProject(r.Context(), project.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	todoID := chi.URLParam(r, "todoID")
	var todo *models.Todo
	for i := range todos {
		if todos[i].ID == todoID {
			todo = &todos[i]
			break
		}
	}
	if todo == nil {
		respondError(w, h.logger, core.ErrNotFound)
		return
	}

	if req.Title != "" {
		todo.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		todo.Description = req.Description
	}
	if req.Priority != "" {
		todo.Priority = req.Priority
	}
	if req.Status != "" {
		todo.Status = req.Status
	}
	if req.DueDate != nil {
		todo.DueDate = req.DueDate
	}
	todo.UpdatedAt = time.Now().UTC()

	if err := h.db.UpdateTodo(r.Context(), todo); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

type batchTodoRequest struct {
	IDs      []string `json:"ids"`
	Status   string   `json:"status"`
	Priority string   `json:"priority"`
}

// BatchUpdateStatus updates many todos at once. Only rows owned by the
// caller are touched; foreign ids are silently skipped.
func (h *TodoHandler) BatchUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req batchTodoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if len(req.IDs) == 0 || !validTodoStatus(req.Status) {
		respondError(w, h.logger, core.ErrValidation)
		return
	}

	updated, err := h.db.BatchUpdateTodoStatus(r.Context(), userID(r), req.IDs, req.Status)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *TodoHandler) BatchUpdatePriority(w http.ResponseWriter, r *http.Request) {
	var req batchTodoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if len(req.IDs) == 0 || !validPriority(req.Priority) {
		respondError(w, h.logger, core.ErrValidation)
		return
	}

	updated, err := h.db.BatchUpdateTodoPriority(r.Context(), userID(r), req.IDs, req.Priority)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *TodoHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchTodoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, h.logger, core.ErrValidation)
		return
	}

	deleted, err := h.db.BatchDeleteTodos(r.Context(), userID(r), req.IDs)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *TodoHandler) ownedProject(r *http.Request) (*models.Project, error) {
	project, err := h.db.GetProjectByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID(r) {
		return nil, core.ErrNotFound
	}
	return project, nil
}
