package config

import (
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	APIModeLive = "live"
	APIModeTest = "test"
)

// PaymentSettings are the add-on level Stripe settings. They can change at runtime.
type PaymentSettings struct {
	APIMode            string `mapstructure:"api_mode"`
	TestSecretKey      string `mapstructure:"test_secret_key"`
	TestPublishableKey string `mapstructure:"test_publishable_key"`
	LiveSecretKey      string `mapstructure:"live_secret_key"`
	LivePublishableKey string `mapstructure:"live_publishable_key"`
	AccountID          string `mapstructure:"account_id"`

	WebhooksEnabled  bool   `mapstructure:"webhooks_enabled"`
	WebhookSecret    string `mapstructure:"webhook_secret"`
	WebhookTolerance int    `mapstructure:"webhook_tolerance_seconds"`

	CancelAtPeriodEnd    bool `mapstructure:"cancel_at_period_end"`
	AuthorizationOnly    bool `mapstructure:"authorization_only"`
	ExposeProviderErrors bool `mapstructure:"expose_provider_errors"`
}

// IsLive reports whether live keys are in use.
func (s PaymentSettings) IsLive() bool {
	return strings.EqualFold(strings.TrimSpace(s.APIMode), APIModeLive)
}

// SecretKey returns the secret key for the configured mode.
func (s PaymentSettings) SecretKey() string {
	if s.IsLive() {
		return strings.TrimSpace(s.LiveSecretKey)
	}
	return strings.TrimSpace(s.TestSecretKey)
}

func DefaultPaymentSettings() PaymentSettings {
	return PaymentSettings{
		APIMode:              APIModeTest,
		WebhooksEnabled:      true,
		WebhookTolerance:     300,
		ExposeProviderErrors: true,
	}
}

type SettingsHolder struct {
	current atomic.Value // holds PaymentSettings
}

// NewStaticSettings returns a holder that never reloads.
func NewStaticSettings(settings PaymentSettings) *SettingsHolder {
	holder := &SettingsHolder{}
	holder.current.Store(settings)
	return holder
}

// NewSettingsHolder reads payments.yml (or PAYMENT_SETTINGS_FILE) and watches it for changes.
// FORMPAY_PAYMENTS_* environment variables override file values.
func NewSettingsHolder(cfg Config, log *zap.Logger) (*SettingsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.payments")

	v := viper.New()
	if cfg.Stripe.SettingsFile != "" {
		v.SetConfigFile(cfg.Stripe.SettingsFile)
	} else {
		v.SetConfigName("payments")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/formpay")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FORMPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPaymentSettings()
	v.SetDefault("payments.api_mode", defaults.APIMode)
	v.SetDefault("payments.test_secret_key", "")
	v.SetDefault("payments.test_publishable_key", "")
	v.SetDefault("payments.live_secret_key", "")
	v.SetDefault("payments.live_publishable_key", "")
	v.SetDefault("payments.account_id", "")
	v.SetDefault("payments.webhooks_enabled", defaults.WebhooksEnabled)
	v.SetDefault("payments.webhook_secret", "")
	v.SetDefault("payments.webhook_tolerance_seconds", defaults.WebhookTolerance)
	v.SetDefault("payments.cancel_at_period_end", false)
	v.SetDefault("payments.authorization_only", false)
	v.SetDefault("payments.expose_provider_errors", defaults.ExposeProviderErrors)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
		log.Info("payment settings file not found, using environment and defaults")
	}

	settings, err := decodeSettings(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticSettings(settings)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeSettings(v)
		if err != nil {
			log.Warn("payment settings reload rejected", zap.String("file", filepath.Base(e.Name)), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("payment settings reloaded", zap.String("file", filepath.Base(e.Name)), zap.String("api_mode", updated.APIMode))
	})

	return holder, nil
}

// Get returns the current settings snapshot.
func (h *SettingsHolder) Get() PaymentSettings {
	if h == nil {
		return DefaultPaymentSettings()
	}
	value, ok := h.current.Load().(PaymentSettings)
	if !ok {
		return DefaultPaymentSettings()
	}
	return value
}

// Set replaces the current settings.
func (h *SettingsHolder) Set(settings PaymentSettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	h.current.Store(settings)
	return nil
}

type settingsFile struct {
	Payments PaymentSettings `mapstructure:"payments"`
}

// decodeSettings goes through AllSettings (via Unmarshal) so env overrides of leaf keys apply.
func decodeSettings(v *viper.Viper) (PaymentSettings, error) {
	var file settingsFile
	if err := v.Unmarshal(&file); err != nil {
		return PaymentSettings{}, err
	}
	settings := file.Payments
	settings.APIMode = strings.ToLower(strings.TrimSpace(settings.APIMode))
	if err := validateSettings(settings); err != nil {
		return PaymentSettings{}, err
	}
	return settings, nil
}

func validateSettings(s PaymentSettings) error {
	switch strings.ToLower(strings.TrimSpace(s.APIMode)) {
	case APIModeLive, APIModeTest:
	default:
		return errors.New("payments.api_mode must be live or test")
	}
	if s.WebhookTolerance < 0 {
		return errors.New("payments.webhook_tolerance_seconds cannot be negative")
	}
	return nil
}
