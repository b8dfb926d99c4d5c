package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeSettingsFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payments.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewSettingsHolderReadsFile(t *testing.T) {
	path := writeSettingsFile(t, `
payments:
  api_mode: live
  live_secret_key: sk_live_123
  test_secret_key: sk_test_123
  cancel_at_period_end: true
`)
	cfg := Config{Stripe: StripeConfig{SettingsFile: path}}

	holder, err := NewSettingsHolder(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	settings := holder.Get()
	assert.True(t, settings.IsLive())
	assert.Equal(t, "sk_live_123", settings.SecretKey())
	assert.True(t, settings.CancelAtPeriodEnd)
	assert.True(t, settings.ExposeProviderErrors, "defaults apply to keys missing from the file")
	assert.Equal(t, 300, settings.WebhookTolerance)
}

func TestNewSettingsHolderEnvOverride(t *testing.T) {
	path := writeSettingsFile(t, `
payments:
  api_mode: test
  test_secret_key: sk_test_file
`)
	t.Setenv("FORMPAY_PAYMENTS_TEST_SECRET_KEY", "sk_test_env")

	holder, err := NewSettingsHolder(Config{Stripe: StripeConfig{SettingsFile: path}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "sk_test_env", holder.Get().SecretKey())
}

func TestNewSettingsHolderRejectsUnknownMode(t *testing.T) {
	path := writeSettingsFile(t, `
payments:
  api_mode: sandbox
`)
	_, err := NewSettingsHolder(Config{Stripe: StripeConfig{SettingsFile: path}}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestSettingsHolderSet(t *testing.T) {
	holder := NewStaticSettings(DefaultPaymentSettings())
	assert.False(t, holder.Get().IsLive())

	updated := DefaultPaymentSettings()
	updated.APIMode = APIModeLive
	require.NoError(t, holder.Set(updated))
	assert.True(t, holder.Get().IsLive())

	updated.APIMode = "bogus"
	assert.Error(t, holder.Set(updated))
	assert.True(t, holder.Get().IsLive())
}
