package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/formpay/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	webhookKeyPrefix   = "formpay:ratelimit:webhook:"
	localLimiterMaxAge = 10 * time.Minute
)

type localLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// WebhookLimiter throttles webhook deliveries per source. It uses the redis
// bucket when one is configured and falls back to in-process limiters.
type WebhookLimiter struct {
	rate   float64
	burst  int
	bucket *TokenBucket
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	local     map[string]*localLimiter
	lastSweep time.Time
}

func NewWebhookLimiter(cfg config.Config, bucket *TokenBucket, log *zap.Logger) *WebhookLimiter {
	return &WebhookLimiter{
		rate:   cfg.WebhookRateLimit,
		burst:  cfg.WebhookBurst,
		bucket: bucket,
		log:    log.Named("ratelimit.webhook"),
		now:    time.Now,
		local:  make(map[string]*localLimiter),
	}
}

// Enabled reports whether a positive rate and burst are configured.
func (l *WebhookLimiter) Enabled() bool {
	return l != nil && l.rate > 0 && l.burst > 0
}

func (l *WebhookLimiter) Allow(ctx context.Context, key string) bool {
	if !l.Enabled() {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	if l.bucket != nil {
		decision, err := l.bucket.Allow(ctx, webhookKeyPrefix+key, l.rate, l.burst)
		if err == nil {
			return decision.Allowed
		}
		l.log.Warn("redis rate limit failed, using local limiter", zap.Error(err))
	}
	return l.localLimiter(key).Allow()
}

func (l *WebhookLimiter) localLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > localLimiterMaxAge {
		for k, entry := range l.local {
			if now.Sub(entry.lastAccess) > localLimiterMaxAge {
				delete(l.local, k)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.local[key]
	if !ok {
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Limit(l.rate), l.burst)}
		l.local[key] = entry
	}
	entry.lastAccess = now
	return entry.limiter
}
