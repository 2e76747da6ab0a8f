package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
)

type NotificationHandler struct {
	db     core.DbClient
	logger *zap.Logger
}

func NewNotificationHandler(db core.DbClient, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{db: db, logger: logger}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, err := h.db.ListNotificationsByUser(r.Context(), userID(r), unreadOnly)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.db.MarkNotificationRead(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"read": true})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.MarkAllNotificationsRead(r.Context(), userID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
