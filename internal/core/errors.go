package core

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and mapped to HTTP statuses by the
// handlers. Persistence and upstream failures carry extra context via the
// typed errors below.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// LimitExceededError is returned when a usage-limit check denies a request.
type LimitExceededError struct {
	Feature string
	Used    int
	Limit   int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("monthly limit reached for %s: used %d of %d", e.Feature, e.Used, e.Limit)
}

// UpstreamError is returned when an external service (crawler, Serper,
// Azure OpenAI, PayPal) responds with a non-2xx status.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Body)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
