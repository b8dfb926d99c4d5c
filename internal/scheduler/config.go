package scheduler

import (
	"errors"
	"time"

	"github.com/smallbiznis/formpay/internal/config"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

const (
	JobExpireCheckouts    = "expire_checkouts"
	JobPurgeWebhookEvents  = "purge_webhook_events"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval      time.Duration
	BatchSize        int
	JobTimeout       time.Duration
	CheckoutExpiry   time.Duration
	WebhookRetention time.Duration
	EnabledJobs      []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:      time.Minute,
		BatchSize:        50,
		JobTimeout:       30 * time.Second,
		CheckoutExpiry:   24 * time.Hour,
		WebhookRetention: 30 * 24 * time.Hour,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:      cfg.Scheduler.Interval,
		CheckoutExpiry:   cfg.Scheduler.CheckoutExpiry,
		WebhookRetention: cfg.Scheduler.WebhookRetention,
		EnabledJobs:      cfg.Scheduler.Jobs,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.CheckoutExpiry <= 0 {
		c.CheckoutExpiry = defaults.CheckoutExpiry
	}
	if c.WebhookRetention <= 0 {
		c.WebhookRetention = defaults.WebhookRetention
	}
	return c
}
