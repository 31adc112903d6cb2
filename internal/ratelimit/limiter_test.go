package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_New(t *testing.T) {
	limiter := New(200*time.Millisecond, 5)

	assert.NotNil(t, limiter)
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter := New(time.Second, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(), "request %d should be allowed", i+1)
	}

	assert.False(t, limiter.Allow(), "request 6 should be blocked")
}

func TestRateLimiter_Wait(t *testing.T) {
	limiter := New(20*time.Millisecond, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		err := limiter.Wait(context.Background())
		assert.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond, "requests after the burst are spaced")
	assert.Equal(t, int64(3), limiter.Metrics().AllowedRequests)
}

func TestRateLimiter_Wait_ContextCancellation(t *testing.T) {
	limiter := New(time.Second, 1)

	err := limiter.Wait(context.Background())
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = limiter.Wait(ctx)
	assert.Error(t, err)

	m := limiter.Metrics()
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.DeniedRequests)
}

func TestRateLimiter_ZeroIntervalDisablesPacing(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow())
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := New(time.Second, 100)

	var wg sync.WaitGroup
	successCount := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			successCount <- limiter.Allow()
		}()
	}

	wg.Wait()
	close(successCount)

	allowed := 0
	for success := range successCount {
		if success {
			allowed++
		}
	}

	assert.LessOrEqual(t, allowed, 101, "should not allow much more than the burst")
}

func TestRateLimiter_SetLimit(t *testing.T) {
	limiter := New(time.Minute, 1)

	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	limiter.SetLimit(time.Millisecond, 1)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, limiter.Allow(), "should allow after limit increase and time passage")
}
