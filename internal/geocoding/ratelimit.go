package geocoding

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateInterval is the minimum spacing between provider dispatches.
const DefaultRateInterval = time.Second

// RateLimiter serializes outbound provider calls to one per interval.
// A single instance is shared by the resolver and the suggester.
type RateLimiter struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewRateLimiter creates a limiter. A zero interval uses DefaultRateInterval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		interval = DefaultRateInterval
	}
	return &RateLimiter{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until a dispatch slot is free or ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the configured spacing.
func (l *RateLimiter) Interval() time.Duration {
	return l.interval
}
