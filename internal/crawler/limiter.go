package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum delay between the starts of successive
// fetches. The first Wait returns immediately.
type RateLimiter struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// NewRateLimiter creates a limiter allowing one fetch per delay. A delay of
// zero or less disables limiting.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	if delay <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(delay), 1), delay: delay}
}

// Wait blocks until the next fetch may start or ctx is done. When the delay
// would outlast ctx's deadline, Wait holds until the deadline passes so that
// a non-nil error always means ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	err := r.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); ok || ctx.Err() != nil {
		<-ctx.Done()
		return context.Cause(ctx)
	}
	return err
}

// Delay returns the configured delay.
func (r *RateLimiter) Delay() time.Duration {
	return r.delay
}
