package payment

import (
	"github.com/smallbiznis/formpay/internal/config"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/smallbiznis/formpay/internal/gateway/stripe"
	"github.com/smallbiznis/formpay/internal/observability/metrics"
	"github.com/smallbiznis/formpay/internal/payment/domain"
	paymentservice "github.com/smallbiznis/formpay/internal/payment/service"
	"github.com/smallbiznis/formpay/internal/payment/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.service",
	fx.Provide(newGateway),
	fx.Provide(func(h *config.SettingsHolder) domain.SettingsSource { return h }),
	fx.Provide(func(feeds feeddomain.Service) domain.FeedLookup { return feeds }),
	fx.Provide(paymentservice.New),
	fx.Provide(webhook.New),
)

type gatewayParams struct {
	fx.In

	Config   config.Config
	Settings *config.SettingsHolder
	Metrics  *metrics.Metrics `optional:"true"`
	Log      *zap.Logger
}

// newGateway builds a Stripe client that reads keys from the live settings
// on every call, so a settings reload switches modes without a restart.
func newGateway(p gatewayParams) domain.Gateway {
	return newPlanCachingGateway(newStripeClient(p), p.Settings)
}

func newStripeClient(p gatewayParams) *stripe.Client {
	keys := func() stripe.Credentials {
		settings := p.Settings.Get()
		return stripe.Credentials{
			SecretKey: settings.SecretKey(),
			AccountID: settings.AccountID,
		}
	}
	opts := []stripe.Option{stripe.WithLogger(p.Log)}
	if p.Metrics != nil {
		opts = append(opts, stripe.WithRecorder(p.Metrics))
	}
	return stripe.NewClient(stripe.Config{
		APIBase:    p.Config.Stripe.APIBase,
		APIVersion: p.Config.Stripe.APIVersion,
		Timeout:    p.Config.Stripe.Timeout,
	}, keys, opts...)
}
