package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/formpay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWebhookLimiterBurst(t *testing.T) {
	limiter := NewWebhookLimiter(config.Config{WebhookRateLimit: 0.001, WebhookBurst: 2}, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.False(t, limiter.Allow(ctx, "10.0.0.1"))

	assert.True(t, limiter.Allow(ctx, "10.0.0.2"))
}

func TestWebhookLimiterDisabled(t *testing.T) {
	limiter := NewWebhookLimiter(config.Config{}, nil, zaptest.NewLogger(t))
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow(context.Background(), "10.0.0.1"))
	}
}

func TestWebhookLimiterSweepsIdleKeys(t *testing.T) {
	limiter := NewWebhookLimiter(config.Config{WebhookRateLimit: 1, WebhookBurst: 1}, nil, zaptest.NewLogger(t))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow(context.Background(), "a")
	limiter.Allow(context.Background(), "b")
	require.Len(t, limiter.local, 2)

	now = now.Add(2 * localLimiterMaxAge)
	limiter.Allow(context.Background(), "c")
	assert.Len(t, limiter.local, 1)
}

func TestLockerWithoutRedis(t *testing.T) {
	var locker *Locker
	_, ok, err := locker.TryLock(context.Background(), "k", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "k", "token"))
	assert.Nil(t, NewLocker(nil))
}

func TestTokenBucketWithoutRedis(t *testing.T) {
	assert.Nil(t, NewTokenBucket(nil))

	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrBucketNotConfigured)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, retryAfter(0.5, 1))
	assert.Zero(t, retryAfter(1, 1))
	assert.Equal(t, 2.5, parseTokens("2.5"))
	assert.Equal(t, float64(3), parseTokens(int64(3)))
}
