package payment

import (
	"context"
	"time"

	"github.com/smallbiznis/formpay/internal/cache"
	"github.com/smallbiznis/formpay/internal/gateway/stripe"
	"github.com/smallbiznis/formpay/internal/payment/domain"
)

const planCacheTTL = 30 * time.Minute

// planCachingGateway serves repeat plan lookups from memory. A plan id is
// derived from the feed's billing settings and amount, never the currency, and
// Stripe plans are immutable. Keys are scoped to the API mode and account.
type planCachingGateway struct {
	domain.Gateway
	settings domain.SettingsSource
	plans    cache.Cache[string, *stripe.Plan]
}

func newPlanCachingGateway(next domain.Gateway, settings domain.SettingsSource) *planCachingGateway {
	return &planCachingGateway{
		Gateway:  next,
		settings: settings,
		plans:    cache.NewTTLCache[string, *stripe.Plan](),
	}
}

func (g *planCachingGateway) planKey(id string) string {
	s := g.settings.Get()
	return cache.Key(s.APIMode, s.AccountID, id)
}

func (g *planCachingGateway) RetrievePlan(ctx context.Context, id string) (*stripe.Plan, error) {
	key := g.planKey(id)
	if plan, ok := g.plans.Get(key); ok {
		return plan, nil
	}
	plan, err := g.Gateway.RetrievePlan(ctx, id)
	if err != nil || plan == nil {
		return plan, err
	}
	g.plans.Set(key, plan, planCacheTTL)
	return plan, nil
}

func (g *planCachingGateway) CreatePlan(ctx context.Context, params stripe.PlanParams) (*stripe.Plan, error) {
	plan, err := g.Gateway.CreatePlan(ctx, params)
	if err != nil || plan == nil {
		return plan, err
	}
	g.plans.Set(g.planKey(plan.ID), plan, planCacheTTL)
	return plan, nil
}
