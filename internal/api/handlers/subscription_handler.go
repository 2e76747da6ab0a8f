package handlers

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/services"
)

const maxWebhookBytes = 1 << 20

type SubscriptionHandler struct {
	subs   *services.SubscriptionService
	usage  *services.UsageService
	logger *zap.Logger
}

func NewSubscriptionHandler(subs *services.SubscriptionService, usage *services.UsageService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, usage: usage, logger: logger}
}

// PaypalWebhook receives billing events. The raw body must be preserved
// byte-for-byte for signature verification.
func (h *SubscriptionHandler) PaypalWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	headers := core.WebhookHeaders{
		TransmissionID:   r.Header.Get("Paypal-Transmission-Id"),
		TransmissionTime: r.Header.Get("Paypal-Transmission-Time"),
		TransmissionSig:  r.Header.Get("Paypal-Transmission-Sig"),
		CertURL:          r.Header.Get("Paypal-Cert-Url"),
		AuthAlgo:         r.Header.Get("Paypal-Auth-Algo"),
	}

	if err := h.subs.HandleWebhook(r.Context(), headers, body); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

// Usage reports the caller's current month consumption for one feature.
func (h *SubscriptionHandler) Usage(w http.ResponseWriter, r *http.Request) {
	feature := r.URL.Query().Get("feature")
	if feature == "" {
		respondError(w, h.logger, core.ErrValidation)
		return
	}
	decision, err := h.usage.CheckLimit(r.Context(), userID(r), feature, 1)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}
