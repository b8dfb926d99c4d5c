package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/currency"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	"github.com/smallbiznis/formpay/internal/gateway/stripe"
	"github.com/smallbiznis/formpay/internal/observability/metrics"
	"github.com/smallbiznis/formpay/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// TestEventID is the id Stripe uses for dashboard test deliveries.
const TestEventID = "evt_00000000000000"

const (
	EventChargeRefunded             = "charge.refunded"
	EventCustomerSubscriptionDelete = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded    = "invoice.payment_succeeded"
	EventInvoicePaymentFailed       = "invoice.payment_failed"
	EventCheckoutSessionCompleted   = "checkout.session.completed"
	EventCheckoutAsyncSucceeded     = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncFailed        = "checkout.session.async_payment_failed"
)

const (
	checkoutPaid              = "paid"
	checkoutNoPaymentRequired = "no_payment_required"
)

type Params struct {
	fx.In

	Gateway  domain.Gateway
	Entries  domain.EntryStore
	Feeds    domain.FeedLookup
	Settings domain.SettingsSource
	Hooks    domain.Hooks     `optional:"true"`
	Clock    clock.Clock      `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
	Log      *zap.Logger
}

// Service maps inbound Stripe events onto stored entries. It holds no state
// between calls; replay dedupe is left to the caller through Action.ID.
type Service struct {
	gateway  domain.Gateway
	entries  domain.EntryStore
	feeds    domain.FeedLookup
	settings domain.SettingsSource
	hooks    domain.Hooks
	clock    clock.Clock
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func New(p Params) domain.Reconciler {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		gateway:  p.Gateway,
		entries:  p.Entries,
		feeds:    p.Feeds,
		settings: p.Settings,
		hooks:    p.Hooks.WithDefaults(),
		clock:    clk,
		metrics:  p.Metrics,
		log:      p.Log.Named("payment.webhook"),
	}
}

type envelope struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Livemode *bool  `json:"livemode"`
}

func (s *Service) Reconcile(ctx context.Context, body []byte, headers http.Header) (*domain.Action, error) {
	action, eventType, err := s.reconcile(ctx, body, headers)
	s.metrics.RecordWebhookEvent(ctx, eventType, outcome(err))
	return action, err
}

func (s *Service) reconcile(ctx context.Context, body []byte, headers http.Header) (*domain.Action, string, error) {
	settings := s.settings.Get()
	if !settings.WebhooksEnabled {
		return nil, "", domain.NewWebhookError(domain.ErrEventIgnored, "Webhooks are disabled.")
	}

	if secret := strings.TrimSpace(settings.WebhookSecret); secret != "" {
		tolerance := time.Duration(settings.WebhookTolerance) * time.Second
		if err := VerifySignature(body, headers.Get("Stripe-Signature"), secret, tolerance, s.clock.Now()); err != nil {
			s.log.Warn("webhook signature rejected")
			return nil, "", domain.NewWebhookError(domain.ErrInvalidSignature, "Invalid webhook signature.")
		}
	}

	env, ok := parseEnvelope(body)
	if !ok {
		s.log.Debug("webhook body empty or malformed", zap.Int("bytes", len(body)))
		return nil, "", domain.NewWebhookError(domain.ErrEventIgnored, "Webhook body could not be parsed.")
	}

	if env.ID == TestEventID {
		return nil, env.Type, domain.NewWebhookError(domain.ErrTestWebhook,
			"Test webhook succeeded. Your Stripe Account and Stripe Add-On are configured correctly to process webhooks.")
	}

	if env.Livemode != nil && !*env.Livemode && settings.IsLive() {
		return nil, env.Type, domain.NewWebhookError(domain.ErrLivemodeMismatch, "Webhook from test transaction. Bypassed.")
	}

	event, err := s.gateway.RetrieveEvent(ctx, env.ID)
	if err != nil {
		s.log.Error("unable to retrieve stripe event", zap.String("event_id", env.ID), zap.Error(err))
		return nil, env.Type, domain.NewWebhookError(domain.ErrEventUnavailable, "Invalid webhook data. Webhook could not be processed.")
	}

	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))
	log.Debug("webhook event retrieved")

	action, err := s.dispatch(ctx, event)
	if err != nil {
		log.Warn("webhook event not processed", zap.Error(err))
		return nil, event.Type, err
	}

	action = s.hooks.WebhookAction(ctx, action, event)
	if action == nil || action.EntryID == 0 {
		log.Debug("entry_id not set for callback action; no further processing required")
		return nil, event.Type, domain.NewWebhookError(domain.ErrEventIgnored, "Event %s does not require processing.", event.Type)
	}

	log.Info("webhook action resolved",
		zap.String("action_type", string(action.Type)),
		zap.String("entry_id", action.EntryID.String()),
	)
	return action, event.Type, nil
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) (*domain.Action, error) {
	action := &domain.Action{ID: event.ID, EventType: event.Type}

	switch event.Type {
	case EventChargeRefunded:
		var charge stripe.Charge
		if err := event.DecodeObject(&charge); err != nil {
			return nil, invalidObject(event)
		}
		action.TransactionID = charge.ID
		entry, err := s.chargeEntry(ctx, charge)
		if err != nil {
			return nil, err
		}
		action.EntryID = entry.ID
		action.Type = domain.ActionRefundPayment
		action.Amount = currency.FromMinorUnits(charge.AmountRefunded, entry.Currency)

	case EventCustomerSubscriptionDelete:
		var sub stripe.Subscription
		if err := event.DecodeObject(&sub); err != nil {
			return nil, invalidObject(event)
		}
		action.SubscriptionID = sub.ID
		entry, err := s.entryFor(ctx, sub.ID, "subscription")
		if err != nil {
			return nil, err
		}
		action.EntryID = entry.ID
		action.Type = domain.ActionCancelSubscription
		action.Amount = currency.FromMinorUnits(subscriptionPlanAmount(sub), entry.Currency)

	case EventInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := event.DecodeObject(&invoice); err != nil {
			return nil, invalidObject(event)
		}
		line, ok := invoice.SubscriptionLine()
		if !ok {
			return nil, domain.NewWebhookError(domain.ErrInvalidWebhook, "Subscription line item not found in request")
		}
		action.SubscriptionID = line.SubscriptionID()
		entry, err := s.entryFor(ctx, action.SubscriptionID, "subscription")
		if err != nil {
			return nil, err
		}
		action.TransactionID = invoice.Charge
		action.EntryID = entry.ID
		action.Type = domain.ActionAddSubscriptionPayment
		action.Amount = currency.FromMinorUnits(invoice.AmountDue, entry.Currency)

		if currency.FromMinorUnits(invoice.StartingBalance, entry.Currency) > 0 {
			action.Note = s.capturedPaymentNote(ctx, entry) + " "
		}
		action.Note += fmt.Sprintf("Subscription payment has been paid. Amount: %s. Subscription Id: %s",
			currency.Format(action.Amount, entry.Currency), action.SubscriptionID)

	case EventInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := event.DecodeObject(&invoice); err != nil {
			return nil, invalidObject(event)
		}
		line, ok := invoice.SubscriptionLine()
		if !ok {
			return nil, domain.NewWebhookError(domain.ErrInvalidWebhook, "Subscription line item not found in request")
		}
		action.SubscriptionID = line.SubscriptionID()
		entry, err := s.entryFor(ctx, action.SubscriptionID, "subscription")
		if err != nil {
			return nil, err
		}
		action.EntryID = entry.ID
		action.Type = domain.ActionFailSubscriptionPayment
		action.Amount = currency.FromMinorUnits(line.Amount, entry.Currency)

	case EventCheckoutSessionCompleted, EventCheckoutAsyncSucceeded:
		var session stripe.CheckoutSession
		if err := event.DecodeObject(&session); err != nil {
			return nil, invalidObject(event)
		}
		if session.PaymentStatus != checkoutPaid && session.PaymentStatus != checkoutNoPaymentRequired {
			return nil, domain.NewWebhookError(domain.ErrEventIgnored,
				"Checkout session %s is awaiting payment (%s).", session.ID, session.PaymentStatus)
		}
		entry, err := s.entryFor(ctx, session.ID, "transaction")
		if err != nil {
			return nil, err
		}
		transactionID, err := s.sessionTransactionID(ctx, session)
		if err != nil {
			return nil, err
		}
		action.TransactionID = transactionID
		action.EntryID = entry.ID
		action.Type = domain.ActionCompletePayment
		action.Amount = currency.FromMinorUnits(session.AmountTotal, entry.Currency)
		action.Note = fmt.Sprintf("Payment has been completed. Amount: %s. Transaction Id: %s",
			currency.Format(action.Amount, entry.Currency), transactionID)

	case EventCheckoutAsyncFailed:
		var session stripe.CheckoutSession
		if err := event.DecodeObject(&session); err != nil {
			return nil, invalidObject(event)
		}
		entry, err := s.entryFor(ctx, session.ID, "transaction")
		if err != nil {
			return nil, err
		}
		action.TransactionID = session.ID
		action.EntryID = entry.ID
		action.Type = domain.ActionFailPayment
		action.Amount = currency.FromMinorUnits(session.AmountTotal, entry.Currency)
		action.Note = fmt.Sprintf("Payment has failed. Amount: %s. Transaction Id: %s",
			currency.Format(action.Amount, entry.Currency), session.ID)
	}

	return action, nil
}

func (s *Service) entryFor(ctx context.Context, id, kind string) (*entrydomain.Entry, error) {
	entry, err := s.entries.FindByTransactionID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.NewWebhookError(domain.ErrEntryNotFound,
			"Entry for %s id: %s was not found. Webhook cannot be processed.", kind, id)
	}
	return entry, nil
}

// chargeEntry finds the entry a charge paid for. Checkout entries whose intent
// had no charge yet when the session completed are stored under the intent id.
func (s *Service) chargeEntry(ctx context.Context, charge stripe.Charge) (*entrydomain.Entry, error) {
	entry, err := s.entries.FindByTransactionID(ctx, charge.ID)
	if err != nil || entry != nil {
		return entry, err
	}
	if charge.PaymentIntent != "" {
		if entry, err = s.entries.FindByTransactionID(ctx, charge.PaymentIntent); err != nil || entry != nil {
			return entry, err
		}
	}
	return nil, domain.NewWebhookError(domain.ErrEntryNotFound,
		"Entry for transaction id: %s was not found. Webhook cannot be processed.", charge.ID)
}

// sessionTransactionID resolves the charge that paid a checkout session so
// later charge events can find the entry. Sessions without a payment intent
// keep their own id.
func (s *Service) sessionTransactionID(ctx context.Context, session stripe.CheckoutSession) (string, error) {
	if session.PaymentIntent == "" {
		return session.ID, nil
	}
	intent, err := s.gateway.RetrievePaymentIntent(ctx, session.PaymentIntent)
	if err != nil {
		s.log.Error("unable to retrieve payment intent",
			zap.String("session_id", session.ID),
			zap.String("payment_intent", session.PaymentIntent),
			zap.Error(err),
		)
		return "", domain.NewWebhookError(domain.ErrEventUnavailable, "Invalid webhook data. Webhook could not be processed.")
	}
	if intent.LatestCharge == "" {
		return intent.ID, nil
	}
	return intent.LatestCharge, nil
}

// capturedPaymentNote describes what a positive starting balance paid for.
func (s *Service) capturedPaymentNote(ctx context.Context, entry *entrydomain.Entry) string {
	feed, err := s.feeds.Get(ctx, entry.FeedID)
	if err != nil {
		s.log.Warn("feed lookup failed for entry", zap.String("entry_id", entry.ID.String()), zap.Error(err))
		return "Trial has been paid."
	}
	if feed.SetupFee.Enabled {
		return "Setup fee has been paid."
	}
	return "Trial has been paid."
}

func subscriptionPlanAmount(sub stripe.Subscription) int64 {
	if sub.Plan != nil {
		return sub.Plan.Amount
	}
	for _, item := range sub.Items.Data {
		if item.Plan != nil {
			return item.Plan.Amount
		}
	}
	return 0
}

func invalidObject(event *stripe.Event) error {
	return domain.NewWebhookError(domain.ErrInvalidWebhook, "Event %s has an unreadable data object.", event.ID)
}

// parseEnvelope reads the event id from a JSON body, falling back to the
// legacy form-encoded delivery that carries the JSON in a form value.
func parseEnvelope(body []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.ID != "" {
		return env, true
	}
	if !bytes.Contains(body, []byte("ipn_is_json")) {
		return envelope{}, false
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return envelope{}, false
	}
	for key, list := range values {
		if key == "ipn_is_json" {
			continue
		}
		for _, raw := range list {
			var candidate envelope
			if err := json.Unmarshal([]byte(raw), &candidate); err == nil && candidate.ID != "" {
				return candidate, true
			}
		}
	}
	return envelope{}, false
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case errors.Is(err, domain.ErrTestWebhook):
		return "test"
	case errors.Is(err, domain.ErrEventIgnored), errors.Is(err, domain.ErrLivemodeMismatch):
		return "ignored"
	case errors.Is(err, domain.ErrEntryNotFound):
		return "entry_not_found"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrEventUnavailable):
		return "event_unavailable"
	default:
		return "invalid"
	}
}
