// Package ratelimit provides a token bucket limiter for outbound synthesis
// requests. Speech providers enforce tight per-minute quotas; pacing requests
// client-side avoids burning retry budget on 429 responses.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests.
type Limiter struct {
	limiter *rate.Limiter
}

// PerMinute creates a limiter allowing n requests per minute with a burst of
// one, so requests are spaced evenly rather than front-loaded.
func PerMinute(n int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(float64(n)/60.0), 1)}
}

// Wait blocks until a request is allowed or the context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed right now, without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
