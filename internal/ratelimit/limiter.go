package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces outgoing requests: up to burst requests at once,
// then one per interval.
type RateLimiter struct {
	limiter *rate.Limiter
	metrics *Metrics
}

// Metrics tracks statistics about rate limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
	waitedNanos     atomic.Int64
}

// New creates a RateLimiter. An interval of zero disables pacing.
func New(interval time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(limit(interval), max(burst, 1)),
		metrics: &Metrics{},
	}
}

func limit(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// Wait blocks until a request may be sent or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.metrics.totalRequests.Add(1)
	start := time.Now()
	err := r.limiter.Wait(ctx)
	r.metrics.waitedNanos.Add(int64(time.Since(start)))
	if err != nil {
		r.metrics.deniedRequests.Add(1)
		return err
	}
	r.metrics.allowedRequests.Add(1)
	return nil
}

// Allow returns true if a request may be sent immediately.
func (r *RateLimiter) Allow() bool {
	r.metrics.totalRequests.Add(1)
	allowed := r.limiter.Allow()
	if allowed {
		r.metrics.allowedRequests.Add(1)
	} else {
		r.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// SetLimit updates the pacing.
func (r *RateLimiter) SetLimit(interval time.Duration, burst int) {
	r.limiter.SetLimit(limit(interval))
	r.limiter.SetBurst(max(burst, 1))
}

// Metrics returns a snapshot of the current rate limiter statistics.
func (r *RateLimiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   r.metrics.totalRequests.Load(),
		AllowedRequests: r.metrics.allowedRequests.Load(),
		DeniedRequests:  r.metrics.deniedRequests.Load(),
		Waited:          time.Duration(r.metrics.waitedNanos.Load()),
	}
}

// MetricsSnapshot is a point-in-time capture of rate limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests is the total number of rate limit checks performed.
	TotalRequests int64
	// AllowedRequests is the number of requests that were allowed.
	AllowedRequests int64
	// DeniedRequests counts Allow refusals and Wait cancellations.
	DeniedRequests int64
	// Waited is the total time spent blocked in Wait.
	Waited time.Duration
}
