package domain

import (
	"context"

	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/smallbiznis/formpay/internal/gateway/stripe"
)

// CustomerIDResolver returns an existing provider customer id for the
// submission, or "" to create a new customer.
type CustomerIDResolver func(ctx context.Context, sc *SubmissionContext) string

// FieldValueOverride may replace a field value before it is sent to the provider.
type FieldValueOverride func(sc *SubmissionContext, fieldID, value string) string

// DescriptionOverride may replace the generated charge description.
type DescriptionOverride func(sc *SubmissionContext, description string) string

// AmountOverride may replace the amount charged or subscribed.
type AmountOverride func(sc *SubmissionContext, amount float64) float64

// AuthorizationOnlyPolicy decides whether capture stops after the charge update.
type AuthorizationOnlyPolicy func(sc *SubmissionContext, configured bool) bool

// CancelPolicy decides whether a cancellation waits for the period end.
type CancelPolicy func(entry *entrydomain.Entry, feed *feeddomain.Feed, atPeriodEnd bool) bool

// CustomerCreated observes a newly created customer before the subscription is attached.
type CustomerCreated func(ctx context.Context, customer *stripe.Customer, sc *SubmissionContext)

// WebhookActionFilter may rewrite the action for an event, or build one for
// event types the reconciler does not handle. Returning nil ignores the event.
type WebhookActionFilter func(ctx context.Context, action *Action, event *stripe.Event) *Action

// Hooks are the host extension points. Nil fields behave as identity or no-op.
type Hooks struct {
	CustomerID        CustomerIDResolver
	FieldValue        FieldValueOverride
	Description       DescriptionOverride
	Amount            AmountOverride
	AuthorizationOnly AuthorizationOnlyPolicy
	CancelAtPeriodEnd CancelPolicy
	CustomerCreated   CustomerCreated
	WebhookAction     WebhookActionFilter
}

// WithDefaults fills unset hooks with their identity behavior.
func (h Hooks) WithDefaults() Hooks {
	if h.CustomerID == nil {
		h.CustomerID = func(context.Context, *SubmissionContext) string { return "" }
	}
	if h.FieldValue == nil {
		h.FieldValue = func(_ *SubmissionContext, _ string, value string) string { return value }
	}
	if h.Description == nil {
		h.Description = func(_ *SubmissionContext, description string) string { return description }
	}
	if h.Amount == nil {
		h.Amount = func(_ *SubmissionContext, amount float64) float64 { return amount }
	}
	if h.AuthorizationOnly == nil {
		h.AuthorizationOnly = func(_ *SubmissionContext, configured bool) bool { return configured }
	}
	if h.CancelAtPeriodEnd == nil {
		h.CancelAtPeriodEnd = func(_ *entrydomain.Entry, _ *feeddomain.Feed, atPeriodEnd bool) bool { return atPeriodEnd }
	}
	if h.CustomerCreated == nil {
		h.CustomerCreated = func(context.Context, *stripe.Customer, *SubmissionContext) {}
	}
	if h.WebhookAction == nil {
		h.WebhookAction = func(_ context.Context, action *Action, _ *stripe.Event) *Action { return action }
	}
	return h
}
