package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	middleware "github.com/seopulse/seopulse/internal/api/middlewares"
	"github.com/seopulse/seopulse/internal/core"
)

// userID is shorthand for the authenticated user id set by the JWT middleware.
func userID(r *http.Request) string {
	return middleware.UserID(r)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps the service error set onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the detail goes to the log only.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var limitErr *core.LimitExceededError
	var upstreamErr *core.UpstreamError

	switch {
	case errors.Is(err, core.ErrUnauthorized):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrForbidden):
		respondJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, core.ErrValidation):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidTransition):
		respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.As(err, &limitErr):
		respondJSON(w, http.StatusForbidden, map[string]any{
			"error":   limitErr.Error(),
			"feature": limitErr.Feature,
			"used":    limitErr.Used,
			"limit":   limitErr.Limit,
		})
	case errors.As(err, &upstreamErr):
		logger.Error("upstream failure", zap.String("service", upstreamErr.Service), zap.Error(err))
		respondJSON(w, http.StatusBadGateway, errorBody{Error: "upstream service unavailable"})
	default:
		logger.Error("internal error", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return core.ErrValidation
	}
	return nil
}
