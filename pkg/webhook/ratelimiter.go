package webhook

import (
	"context"

	"golang.org/x/time/rate"
)

// OutboundLimiter smooths the dispatcher's outbound request rate
// in-process, independent of any tenant's own inbound rate limit
// (internal/auth.RateLimiter) — this one protects downstream receivers
// from a delivery burst after an outage, not ORIGIN's own API.
type OutboundLimiter struct {
	limiter *rate.Limiter
}

// NewOutboundLimiter builds a limiter allowing ratePerSecond steady-state
// requests with a burst of int(ratePerSecond)+1.
func NewOutboundLimiter(ratePerSecond float64) *OutboundLimiter {
	return &OutboundLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)+1)}
}

// Wait blocks until a token is available or ctx is canceled.
func (l *OutboundLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
