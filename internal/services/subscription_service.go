package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

// planTiers maps PayPal billing plan ids to subscription tiers. Plans are
// created once in the PayPal dashboard and wired here.
var planTiers = map[string]string{
	"seopulse-pro-monthly":    models.TierPro,
	"seopulse-pro-yearly":     models.TierPro,
	"seopulse-agency-monthly": models.TierAgency,
	"seopulse-agency-yearly":  models.TierAgency,
}

// PayPal event types handled by the webhook.
const (
	EventSubscriptionActivated = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
	EventPaymentCompleted      = "PAYMENT.SALE.COMPLETED"
	EventPaymentFailed         = "BILLING.SUBSCRIPTION.PAYMENT.FAILED"
)

// WebhookEvent is the subset of a PayPal webhook payload this service reads.
type WebhookEvent struct {
	ID           string `json:"id"`
	EventType    string `json:"event_type"`
	ResourceType string `json:"resource_type"`
	Resource     struct {
		ID               string `json:"id"` // subscription id on billing events
		PlanID           string `json:"plan_id"`
		CustomID         string `json:"custom_id"` // our user id, set at checkout
		BillingAgreement string `json:"billing_agreement_id"`
		BillingInfo      struct {
			NextBillingTime time.Time `json:"next_billing_time"`
		} `json:"billing_info"`
	} `json:"resource"`
}

// SubscriptionService applies verified PayPal webhook events to profiles.
type SubscriptionService struct {
	db       core.DbClient
	verifier core.WebhookVerifier
	logger   *zap.Logger

	now func() time.Time
}

func NewSubscriptionService(db core.DbClient, verifier core.WebhookVerifier, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		db:       db,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleWebhook verifies and applies one webhook delivery. Duplicate
// deliveries (same event id) are acknowledged without reprocessing.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, headers core.WebhookHeaders, rawEvent json.RawMessage) error {
	verified, err := s.verifier.VerifyWebhookSignature(ctx, headers, rawEvent)
	if err != nil {
		return fmt.Errorf("verify webhook: %w", err)
	}
	if !verified {
		return fmt.Errorf("%w: webhook signature rejected", core.ErrUnauthorized)
	}

	var event WebhookEvent
	if err := json.Unmarshal(rawEvent, &event); err != nil {
		return fmt.Errorf("%w: malformed webhook payload", core.ErrValidation)
	}
	if event.ID == "" {
		return fmt.Errorf("%w: webhook event missing id", core.ErrValidation)
	}

	inserted, err := s.db.InsertSubscriptionEvent(ctx, &models.SubscriptionEvent{
		ID:          event.ID,
		EventType:   event.EventType,
		Payload:     rawEvent,
		ProcessedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if !inserted {
		s.logger.Info("duplicate webhook event ignored", zap.String("event_id", event.ID))
		return nil
	}

	switch event.EventType {
	case EventSubscriptionActivated:
		return s.handleActivated(ctx, &event)
	case EventSubscriptionCancelled:
		return s.handleCancelled(ctx, &event)
	case EventPaymentCompleted:
		return s.handlePaymentCompleted(ctx, &event)
	case EventPaymentFailed:
		return s.handlePaymentFailed(ctx, &event)
	default:
		s.logger.Info("unhandled webhook event type", zap.String("event_type", event.EventType))
		return nil
	}
}

func (s *SubscriptionService) handleActivated(ctx context.Context, event *WebhookEvent) error {
	userID := event.Resource.CustomID
	if userID == "" {
		return fmt.Errorf("%w: activation event missing custom_id", core.ErrValidation)
	}
	tier, ok := planTiers[event.Resource.PlanID]
	if !ok {
		s.logger.Warn("unknown plan id on activation, defaulting to pro",
			zap.String("plan_id", event.Resource.PlanID))
		tier = models.TierPro
	}
	if err := s.db.UpdateSubscription(ctx, userID, tier, "active", event.Resource.ID, nil); err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}
	return s.notify(ctx, userID, "subscription",
		"Subscription activated",
		fmt.Sprintf("Your %s plan is now active.", tier))
}

func (s *SubscriptionService) handleCancelled(ctx context.Context, event *WebhookEvent) error {
	profile, err := s.profileForEvent(ctx, event)
	if err != nil || profile == nil {
		return err
	}
	// Tier is kept until the paid period ends; the daily sweep downgrades
	// once subscription_ends_at passes.
	endsAt := event.Resource.BillingInfo.NextBillingTime
	var endsAtPtr *time.Time
	if !endsAt.IsZero() {
		endsAtPtr = &endsAt
	} else {
		fallback := s.now().UTC().Add(30 * 24 * time.Hour)
		endsAtPtr = &fallback
	}
	if err := s.db.UpdateSubscription(ctx, profile.ID, profile.SubscriptionTier, "cancelled", profile.PaypalSubscriptionID, endsAtPtr); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	return s.notify(ctx, profile.ID, "subscription",
		"Subscription cancelled",
		"Your plan stays active until the end of the current billing period.")
}

func (s *SubscriptionService) handlePaymentCompleted(ctx context.Context, event *WebhookEvent) error {
	profile, err := s.profileForEvent(ctx, event)
	if err != nil || profile == nil {
		return err
	}
	if profile.SubscriptionStatus == "past_due" {
		if err := s.db.UpdateSubscription(ctx, profile.ID, profile.SubscriptionTier, "active", profile.PaypalSubscriptionID, nil); err != nil {
			return fmt.Errorf("reactivate subscription: %w", err)
		}
	}
	return nil
}

func (s *SubscriptionService) handlePaymentFailed(ctx context.Context, event *WebhookEvent) error {
	profile, err := s.profileForEvent(ctx, event)
	if err != nil || profile == nil {
		return err
	}
	if err := s.db.UpdateSubscription(ctx, profile.ID, profile.SubscriptionTier, "past_due", profile.PaypalSubscriptionID, profile.SubscriptionEndsAt); err != nil {
		return fmt.Errorf("mark subscription past_due: %w", err)
	}
	return s.notify(ctx, profile.ID, "billing",
		"Payment failed",
		"We could not collect your subscription payment. Please update your payment method.")
}

// profileForEvent resolves the profile a billing event refers to, trying the
// subscription id first and falling back to custom_id. An unknown profile is
// logged and skipped, not an error: the webhook must still be acknowledged.
func (s *SubscriptionService) profileForEvent(ctx context.Context, event *WebhookEvent) (*models.Profile, error) {
	subID := event.Resource.ID
	if subID == "" {
		subID = event.Resource.BillingAgreement
	}
	if subID != "" {
		profile, err := s.db.GetProfileByPaypalSubscription(ctx, subID)
		if err != nil {
			return nil, fmt.Errorf("load profile by subscription: %w", err)
		}
		if profile != nil {
			return profile, nil
		}
	}
	if event.Resource.CustomID != "" {
		profile, err := s.db.GetProfileByID(ctx, event.Resource.CustomID)
		if err != nil {
			return nil, fmt.Errorf("load profile by id: %w", err)
		}
		if profile != nil {
			return profile, nil
		}
	}
	s.logger.Warn("webhook event for unknown profile",
		zap.String("event_id", event.ID),
		zap.String("subscription_id", subID))
	return nil, nil
}

// DowngradeExpired moves cancelled profiles past their period end back to
// the free tier. Run by the daily sweep.
func (s *SubscriptionService) DowngradeExpired(ctx context.Context) (int64, error) {
	n, err := s.db.DowngradeExpiredSubscriptions(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("downgraded expired subscriptions", zap.Int64("count", n))
	}
	return n, nil
}

func (s *SubscriptionService) notify(ctx context.Context, userID, kind, title, message string) error {
	err := s.db.CreateNotification(ctx, &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to create notification",
			zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}
