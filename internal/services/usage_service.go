package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

const usageCacheTTL = 5 * time.Minute

// Decision is the outcome of a usage-limit check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"` // -1 = unlimited
	Message string `json:"message,omitempty"`
}

// UsageService gates feature usage by subscription tier. Counts are scoped
// to the current calendar month (UTC) and cached in Redis.
type UsageService struct {
	db     core.DbClient
	cache  core.Cache
	logger *zap.Logger

	// denyOnMissingLimit controls what a missing usage_limits row means:
	// true blocks the feature, false treats it as unlimited.
	denyOnMissingLimit bool

	now func() time.Time
}

func NewUsageService(db core.DbClient, cache core.Cache, logger *zap.Logger, denyOnMissingLimit bool) *UsageService {
	return &UsageService{
		db:                 db,
		cache:              cache,
		logger:             logger,
		denyOnMissingLimit: denyOnMissingLimit,
		now:                time.Now,
	}
}

// CheckLimit decides whether a user may consume `requested` more units of a
// feature this month.
func (s *UsageService) CheckLimit(ctx context.Context, userID, feature string, requested int) (*Decision, error) {
	if requested < 0 {
		return nil, fmt.Errorf("%w: requested amount must be non-negative", core.ErrValidation)
	}

	profile, err := s.db.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, core.ErrNotFound
	}
	tier := profile.SubscriptionTier
	if tier == "" {
		tier = models.TierFree
	}

	limit, err := s.db.GetUsageLimit(ctx, tier, feature)
	if err != nil {
		return nil, fmt.Errorf("load usage limit: %w", err)
	}
	if limit == nil {
		if s.denyOnMissingLimit {
			s.logger.Warn("no usage limit configured, denying",
				zap.String("tier", tier), zap.String("feature", feature))
			return &Decision{
				Allowed: false,
				Limit:   0,
				Message: fmt.Sprintf("feature %s is not available on the %s plan", feature, tier),
			}, nil
		}
		return &Decision{Allowed: true, Limit: -1}, nil
	}

	// Unlimited tiers bypass the count entirely.
	if limit.MonthlyLimit == -1 {
		return &Decision{Allowed: true, Limit: -1}, nil
	}

	used, err := s.monthlyUsage(ctx, userID, feature)
	if err != nil {
		return nil, err
	}

	d := &Decision{
		Used:    used,
		Limit:   limit.MonthlyLimit,
		Allowed: used+requested <= limit.MonthlyLimit,
	}
	if !d.Allowed {
		d.Message = fmt.Sprintf("monthly limit reached for %s: used %d of %d", feature, used, limit.MonthlyLimit)
	}
	return d, nil
}

// LimitFor resolves the configured limit for a user's tier and feature,
// applying the missing-row policy. -1 means unlimited; 0 means the feature
// is not available on the plan. Used by count-based gates (projects per
// user, competitors per project) that never consume monthly quota.
func (s *UsageService) LimitFor(ctx context.Context, userID, feature string) (int, error) {
	profile, err := s.db.GetProfileByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return 0, core.ErrNotFound
	}
	tier := profile.SubscriptionTier
	if tier == "" {
		tier = models.TierFree
	}

	limit, err := s.db.GetUsageLimit(ctx, tier, feature)
	if err != nil {
		return 0, fmt.Errorf("load usage limit: %w", err)
	}
	if limit == nil {
		if s.denyOnMissingLimit {
			s.logger.Warn("no usage limit configured, denying",
				zap.String("tier", tier), zap.String("feature", feature))
			return 0, nil
		}
		return -1, nil
	}
	return limit.MonthlyLimit, nil
}

// Consume is CheckLimit followed by RecordUsage; it returns a
// LimitExceededError when the check denies the request.
func (s *UsageService) Consume(ctx context.Context, userID, feature string, amount int) error {
	d, err := s.CheckLimit(ctx, userID, feature, amount)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &core.LimitExceededError{Feature: feature, Used: d.Used, Limit: d.Limit}
	}
	return s.RecordUsage(ctx, userID, feature, amount)
}

// RecordUsage appends a usage row and bumps the cached monthly count.
func (s *UsageService) RecordUsage(ctx context.Context, userID, feature string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: usage amount must be positive", core.ErrValidation)
	}
	rec := &models.UsageRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		FeatureName: feature,
		Amount:      amount,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.db.InsertUsageRecord(ctx, rec); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}

	// The bump only lands on an existing counter; a cold cache recounts
	// from the table on the next read.
	if s.cache != nil {
		key := s.usageKey(userID, feature)
		if _, _, err := s.cache.Increment(ctx, key, int64(amount)); err != nil {
			s.logger.Warn("usage cache increment failed", zap.Error(err))
			if delErr := s.cache.Delete(ctx, key); delErr != nil {
				s.logger.Warn("usage cache invalidation failed", zap.Error(delErr))
			}
		}
	}
	return nil
}

func (s *UsageService) monthlyUsage(ctx context.Context, userID, feature string) (int, error) {
	key := s.usageKey(userID, feature)
	if s.cache != nil {
		if val, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			if n, convErr := strconv.Atoi(val); convErr == nil {
				return n, nil
			}
		}
	}

	since := monthStart(s.now())
	used, err := s.db.CountUsageSince(ctx, userID, feature, since)
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, strconv.Itoa(used), usageCacheTTL); err != nil {
			s.logger.Warn("usage cache write failed", zap.Error(err))
		}
	}
	return used, nil
}

func (s *UsageService) usageKey(userID, feature string) string {
	month := s.now().UTC().Format("2006-01")
	return fmt.Sprintf("usage:%s:%s:%s", userID, feature, month)
}

// monthStart returns midnight UTC on the first of the current month.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
