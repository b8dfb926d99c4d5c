package domain

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/formpay/internal/config"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/smallbiznis/formpay/internal/gateway/stripe"
)

// Gateway is the provider surface used by the orchestrator and reconciler.
type Gateway interface {
	CreateCharge(ctx context.Context, params stripe.ChargeParams) (*stripe.Charge, error)
	RetrieveCharge(ctx context.Context, id string) (*stripe.Charge, error)
	UpdateCharge(ctx context.Context, id string, params stripe.ChargeUpdateParams) (*stripe.Charge, error)
	CaptureCharge(ctx context.Context, id string) (*stripe.Charge, error)

	CreateCustomer(ctx context.Context, params stripe.CustomerParams) (*stripe.Customer, error)
	RetrieveCustomer(ctx context.Context, id string) (*stripe.Customer, error)
	UpdateCustomer(ctx context.Context, id string, params stripe.CustomerUpdateParams) (*stripe.Customer, error)

	CreatePlan(ctx context.Context, params stripe.PlanParams) (*stripe.Plan, error)
	RetrievePlan(ctx context.Context, id string) (*stripe.Plan, error)

	CreateSubscription(ctx context.Context, params stripe.SubscriptionParams) (*stripe.Subscription, error)
	ListSubscriptions(ctx context.Context, params stripe.SubscriptionListParams) (*stripe.List[stripe.Subscription], error)
	CancelSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error)

	CreateInvoiceItem(ctx context.Context, params stripe.InvoiceItemParams) (*stripe.InvoiceItem, error)
	RetrieveEvent(ctx context.Context, id string) (*stripe.Event, error)
	RetrieveCoupon(ctx context.Context, id string) (*stripe.Coupon, error)
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

var _ Gateway = (*stripe.Client)(nil)

// EntryStore is the host's entry storage as seen by the payment core.
type EntryStore interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*entrydomain.Entry, error)
	GetMeta(ctx context.Context, entryID snowflake.ID, key string) (string, error)
	SetMeta(ctx context.Context, entryID snowflake.ID, key, value string) error
}

type FeedLookup interface {
	Get(ctx context.Context, id snowflake.ID) (feeddomain.Feed, error)
}

type SettingsSource interface {
	Get() config.PaymentSettings
}

type Orchestrator interface {
	Authorize(ctx context.Context, sc *SubmissionContext) AuthorizationResult
	Capture(ctx context.Context, auth AuthorizationResult, sc *SubmissionContext) PaymentResult
	Cancel(ctx context.Context, entry *entrydomain.Entry, feed *feeddomain.Feed) bool
	Subscribe(ctx context.Context, sc *SubmissionContext) SubscriptionResult
	ProcessSubscription(ctx context.Context, result SubscriptionResult, sc *SubmissionContext) error
	Checkout(ctx context.Context, sc *SubmissionContext, successURL, cancelURL string) CheckoutResult
}

type Reconciler interface {
	Reconcile(ctx context.Context, body []byte, headers http.Header) (*Action, error)
}

// ActionApplier settles a reconciled action against host state. It reports
// false when the action was already applied.
type ActionApplier interface {
	ApplyAction(ctx context.Context, action *Action) (bool, error)
}
