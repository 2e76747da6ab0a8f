package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "unauthorized", err: core.ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "forbidden", err: core.ErrForbidden, want: http.StatusForbidden},
		{name: "not found", err: core.ErrNotFound, want: http.StatusNotFound},
		{name: "validation", err: core.ErrValidation, want: http.StatusBadRequest},
		{name: "invalid transition", err: core.ErrInvalidTransition, want: http.StatusConflict},
		{name: "wrapped sentinel", err: errors.Join(errors.New("ctx"), core.ErrNotFound), want: http.StatusNotFound},
		{name: "limit exceeded", err: &core.LimitExceededError{Feature: "audits", Used: 3, Limit: 3}, want: http.StatusForbidden},
		{name: "upstream", err: &core.UpstreamError{Service: "crawler", Status: 503}, want: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, zap.NewNop(), tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, zap.NewNop(), errors.New("pq: connection refused to 10.0.0.5"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "internal server error")
}
