package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/formpay/internal/currency"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/smallbiznis/formpay/internal/gateway/stripe"
	"github.com/smallbiznis/formpay/internal/observability/metrics"
	"github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/smallbiznis/formpay/internal/pricing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Gateway  domain.Gateway
	Entries  domain.EntryStore
	Settings domain.SettingsSource
	Hooks    domain.Hooks     `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
	Log      *zap.Logger
}

// Service turns submissions into provider charges and subscriptions. Every
// entry point converts provider failures into result values.
type Service struct {
	gateway  domain.Gateway
	entries  domain.EntryStore
	settings domain.SettingsSource
	hooks    domain.Hooks
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func New(p Params) domain.Orchestrator {
	return &Service{
		gateway:  p.Gateway,
		entries:  p.Entries,
		settings: p.Settings,
		hooks:    p.Hooks.WithDefaults(),
		metrics:  p.Metrics,
		log:      p.Log.Named("payment.service"),
	}
}

func (s *Service) Authorize(ctx context.Context, sc *domain.SubmissionContext) domain.AuthorizationResult {
	if problem := sc.Data.Token.Problem(); problem != "" {
		s.record(ctx, "authorize", "token_error")
		return domain.AuthorizationResult{ErrorMessage: problem}
	}

	log := s.log.With(zap.String("entry_id", sc.EntryID().String()))
	cur := sc.Currency()
	amount := s.hooks.Amount(sc, sc.Data.PaymentAmount)

	params := stripe.ChargeParams{
		Amount:         currency.ToMinorUnits(amount, cur),
		Currency:       strings.ToLower(cur),
		Description:    s.paymentDescription(sc),
		Capture:        false,
		Metadata:       s.metadata(sc),
		IdempotencyKey: "authorize:" + sc.EntryID().String(),
	}

	if customerID := s.hooks.CustomerID(ctx, sc); customerID != "" {
		if _, err := s.gateway.RetrieveCustomer(ctx, customerID); err != nil {
			return s.authorizationError(ctx, log, err)
		}
		if _, err := s.gateway.UpdateCustomer(ctx, customerID, stripe.CustomerUpdateParams{Source: sc.Data.Token.ID}); err != nil {
			return s.authorizationError(ctx, log, err)
		}
		params.Customer = customerID
	} else {
		params.Source = sc.Data.Token.ID
	}

	if field := strings.TrimSpace(sc.Feed.ReceiptField); field != "" && !strings.EqualFold(field, "do not send receipt") {
		params.ReceiptEmail = s.fieldValue(sc, field)
	}

	log.Debug("creating charge",
		zap.Int64("amount", params.Amount),
		zap.String("currency", params.Currency),
		zap.Bool("existing_customer", params.Customer != ""),
	)
	charge, err := s.gateway.CreateCharge(ctx, params)
	if err != nil {
		return s.authorizationError(ctx, log, err)
	}

	s.record(ctx, "authorize", "success")
	return domain.AuthorizationResult{IsAuthorized: true, TransactionID: charge.ID}
}

func (s *Service) Capture(ctx context.Context, auth domain.AuthorizationResult, sc *domain.SubmissionContext) domain.PaymentResult {
	log := s.log.With(
		zap.String("entry_id", sc.EntryID().String()),
		zap.String("transaction_id", auth.TransactionID),
	)

	charge, err := s.gateway.RetrieveCharge(ctx, auth.TransactionID)
	if err != nil {
		return s.paymentError(ctx, log, err)
	}

	charge, err = s.gateway.UpdateCharge(ctx, charge.ID, stripe.ChargeUpdateParams{
		Description: s.paymentDescription(sc),
		Metadata:    s.metadata(sc),
	})
	if err != nil {
		return s.paymentError(ctx, log, err)
	}

	if s.hooks.AuthorizationOnly(sc, s.settings.Get().AuthorizationOnly) {
		log.Info("charge authorized only, capture skipped")
		s.record(ctx, "capture", "authorization_only")
		return domain.PaymentResult{}
	}

	captured, err := s.gateway.CaptureCharge(ctx, charge.ID)
	if err != nil {
		return s.paymentError(ctx, log, err)
	}

	method := strings.TrimSpace(sc.Data.CardType)
	if method == "" && captured.Source != nil {
		method = captured.Source.Brand
	}

	s.record(ctx, "capture", "success")
	return domain.PaymentResult{
		IsSuccess:     true,
		TransactionID: captured.ID,
		Amount:        currency.FromMinorUnits(captured.Amount, sc.Currency()),
		PaymentMethod: method,
	}
}

func (s *Service) Cancel(ctx context.Context, entry *entrydomain.Entry, feed *feeddomain.Feed) bool {
	if entry == nil {
		return false
	}
	log := s.log.With(zap.String("entry_id", entry.ID.String()))

	customerID, err := s.entries.GetMeta(ctx, entry.ID, entrydomain.MetaStripeCustomerID)
	if err != nil {
		log.Error("failed to read customer id", zap.Error(err))
		return false
	}
	if customerID == "" {
		return false
	}

	customer, err := s.gateway.RetrieveCustomer(ctx, customerID)
	if err != nil {
		log.Error("failed to retrieve customer", zap.String("customer_id", customerID), zap.Error(err))
		return false
	}

	subscriptionID := entry.TransactionID
	if subscriptionID == "" {
		list, err := s.gateway.ListSubscriptions(ctx, stripe.SubscriptionListParams{
			Customer: customer.ID,
			Status:   "active",
			Limit:    1,
		})
		if err != nil {
			log.Error("failed to list subscriptions", zap.String("customer_id", customer.ID), zap.Error(err))
			return false
		}
		if len(list.Data) == 0 {
			log.Warn("customer has no active subscription", zap.String("customer_id", customer.ID))
			return false
		}
		subscriptionID = list.Data[0].ID
	}

	if s.hooks.CancelAtPeriodEnd(entry, feed, s.settings.Get().CancelAtPeriodEnd) {
		_, err = s.gateway.CancelSubscriptionAtPeriodEnd(ctx, subscriptionID)
	} else {
		_, err = s.gateway.CancelSubscription(ctx, subscriptionID)
	}
	if err != nil {
		log.Error("failed to cancel subscription", zap.String("subscription_id", subscriptionID), zap.Error(err))
		s.record(ctx, "cancel", "failure")
		return false
	}

	log.Info("subscription cancelled", zap.String("subscription_id", subscriptionID))
	s.record(ctx, "cancel", "success")
	return true
}

func (s *Service) Subscribe(ctx context.Context, sc *domain.SubmissionContext) domain.SubscriptionResult {
	if problem := sc.Data.Token.Problem(); problem != "" {
		s.record(ctx, "subscribe", "token_error")
		return domain.SubscriptionResult{ErrorMessage: problem}
	}

	log := s.log.With(zap.String("entry_id", sc.EntryID().String()))
	feed := sc.Feed
	cur := sc.Currency()
	amount := s.hooks.Amount(sc, sc.Data.PaymentAmount)
	setupFee := sc.Data.SetupFee
	trialDays := 0
	if feed.Trial.Enabled {
		trialDays = sc.Data.TrialDays
		if trialDays <= 0 {
			trialDays = feed.TrialDays()
		}
	}

	planID := pricing.PlanID(*feed, amount, trialDays)
	plan, err := s.gateway.RetrievePlan(ctx, planID)
	if err != nil {
		return s.subscriptionError(ctx, log, err)
	}
	if plan == nil {
		log.Info("creating plan", zap.String("plan_id", planID))
		plan, err = s.gateway.CreatePlan(ctx, stripe.PlanParams{
			ID:              planID,
			Amount:          currency.ToMinorUnits(amount, cur),
			Currency:        strings.ToLower(cur),
			Interval:        string(feed.BillingCycle.Unit),
			IntervalCount:   feed.BillingCycle.Length,
			ProductName:     feed.Name,
			TrialPeriodDays: trialDays,
		})
		if err != nil {
			return s.subscriptionError(ctx, log, err)
		}
	}

	idempotencyKey := "subscribe:" + sc.EntryID().String()
	var customer *stripe.Customer

	if customerID := s.hooks.CustomerID(ctx, sc); customerID != "" {
		log.Debug("updating existing customer", zap.String("customer_id", customerID))
		if customer, err = s.gateway.RetrieveCustomer(ctx, customerID); err != nil {
			return s.subscriptionError(ctx, log, err)
		}
		if _, err = s.gateway.UpdateCustomer(ctx, customer.ID, stripe.CustomerUpdateParams{Source: sc.Data.Token.ID}); err != nil {
			return s.subscriptionError(ctx, log, err)
		}
		if setupFee > 0 {
			_, err = s.gateway.CreateInvoiceItem(ctx, stripe.InvoiceItemParams{
				Customer:       customer.ID,
				Amount:         currency.ToMinorUnits(setupFee, cur),
				Currency:       strings.ToLower(cur),
				Description:    "Setup fee",
				IdempotencyKey: "setup_fee:" + sc.EntryID().String(),
			})
			if err != nil {
				return s.subscriptionError(ctx, log, err)
			}
		}
	} else {
		coupon := s.fieldValue(sc, feed.Customer.CouponField)
		if coupon != "" {
			found, err := s.gateway.RetrieveCoupon(ctx, coupon)
			if err != nil {
				return s.subscriptionError(ctx, log, err)
			}
			if found == nil || !found.Valid {
				s.record(ctx, "subscribe", "invalid_coupon")
				return domain.SubscriptionResult{ErrorMessage: "Invalid coupon code."}
			}
		}

		customer, err = s.gateway.CreateCustomer(ctx, stripe.CustomerParams{
			Description:    s.fieldValue(sc, feed.Customer.DescriptionField),
			Email:          s.fieldValue(sc, feed.Customer.EmailField),
			Source:         sc.Data.Token.ID,
			Balance:        currency.ToMinorUnits(setupFee, cur),
			Metadata:       s.metadata(sc),
			Coupon:         coupon,
			IdempotencyKey: "customer:" + sc.EntryID().String(),
		})
		if err != nil {
			return s.subscriptionError(ctx, log, err)
		}
		s.hooks.CustomerCreated(ctx, customer, sc)
	}

	subscription, err := s.gateway.CreateSubscription(ctx, stripe.SubscriptionParams{
		Customer:       customer.ID,
		Plan:           plan.ID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return s.subscriptionError(ctx, log, err)
	}

	log.Info("subscription created",
		zap.String("subscription_id", subscription.ID),
		zap.String("customer_id", customer.ID),
		zap.String("plan_id", plan.ID),
	)
	s.record(ctx, "subscribe", "success")
	return domain.SubscriptionResult{
		IsSuccess:      true,
		SubscriptionID: subscription.ID,
		CustomerID:     customer.ID,
		Amount:         amount,
	}
}

func (s *Service) ProcessSubscription(ctx context.Context, result domain.SubscriptionResult, sc *domain.SubmissionContext) error {
	if !result.IsSuccess || result.CustomerID == "" {
		return nil
	}
	if err := s.entries.SetMeta(ctx, sc.EntryID(), entrydomain.MetaStripeCustomerID, result.CustomerID); err != nil {
		return err
	}

	metadata := s.metadata(sc)
	if len(metadata) == 0 {
		return nil
	}
	if _, err := s.gateway.UpdateCustomer(ctx, result.CustomerID, stripe.CustomerUpdateParams{Metadata: metadata}); err != nil {
		s.log.Warn("failed to update customer metadata",
			zap.String("entry_id", sc.EntryID().String()),
			zap.String("customer_id", result.CustomerID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) Checkout(ctx context.Context, sc *domain.SubmissionContext, successURL, cancelURL string) domain.CheckoutResult {
	if sc.Feed.IsSubscription() {
		return domain.CheckoutResult{ErrorMessage: "Hosted checkout is only available for product feeds."}
	}
	log := s.log.With(zap.String("entry_id", sc.EntryID().String()))
	cur := sc.Currency()

	items := make([]stripe.CheckoutLineItem, 0, len(sc.Data.LineItems))
	for _, item := range sc.Data.LineItems {
		items = append(items, stripe.CheckoutLineItem{
			Name:       item.Name,
			UnitAmount: currency.ToMinorUnits(item.Price, cur),
			Currency:   strings.ToLower(cur),
			Quantity:   item.Quantity,
		})
	}
	if len(items) == 0 {
		items = append(items, stripe.CheckoutLineItem{
			Name:       s.paymentDescription(sc),
			UnitAmount: currency.ToMinorUnits(s.hooks.Amount(sc, sc.Data.PaymentAmount), cur),
			Currency:   strings.ToLower(cur),
			Quantity:   1,
		})
	}

	metadata := s.metadata(sc)
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["entry_id"] = sc.EntryID().String()

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		Mode:              "payment",
		SuccessURL:        successURL,
		CancelURL:         cancelURL,
		CustomerEmail:     s.fieldValue(sc, sc.Feed.Customer.EmailField),
		ClientReferenceID: sc.EntryID().String(),
		LineItems:         items,
		Metadata:          metadata,
		IdempotencyKey:    "checkout:" + sc.EntryID().String(),
	})
	if err != nil {
		log.Error("checkout session failed", zap.Error(err))
		s.record(ctx, "checkout", "failure")
		return domain.CheckoutResult{ErrorMessage: s.userMessage(err)}
	}

	s.record(ctx, "checkout", "success")
	return domain.CheckoutResult{IsSuccess: true, SessionID: session.ID, URL: session.URL}
}

func (s *Service) authorizationError(ctx context.Context, log *zap.Logger, err error) domain.AuthorizationResult {
	log.Error("authorization failed", zap.String("error_kind", string(stripe.KindOf(err))), zap.Error(err))
	s.record(ctx, "authorize", "failure")
	return domain.AuthorizationResult{ErrorMessage: s.userMessage(err)}
}

func (s *Service) paymentError(ctx context.Context, log *zap.Logger, err error) domain.PaymentResult {
	log.Error("capture failed", zap.String("error_kind", string(stripe.KindOf(err))), zap.Error(err))
	s.record(ctx, "capture", "failure")
	return domain.PaymentResult{ErrorMessage: s.userMessage(err)}
}

func (s *Service) subscriptionError(ctx context.Context, log *zap.Logger, err error) domain.SubscriptionResult {
	log.Error("subscription failed", zap.String("error_kind", string(stripe.KindOf(err))), zap.Error(err))
	s.record(ctx, "subscribe", "failure")
	return domain.SubscriptionResult{ErrorMessage: s.userMessage(err)}
}

func (s *Service) record(ctx context.Context, operation, outcome string) {
	s.metrics.RecordPaymentResult(ctx, operation, outcome)
}

// GenericErrorMessage is shown when provider detail is not safe for submitters.
const GenericErrorMessage = "There was a problem processing your payment. Please try again or contact us."

func (s *Service) userMessage(err error) string {
	var gwErr *stripe.Error
	if !errors.As(err, &gwErr) {
		return GenericErrorMessage
	}
	switch gwErr.Kind {
	case stripe.KindCard:
		return gwErr.Error()
	case stripe.KindAuthentication, stripe.KindAPI, stripe.KindTransient, stripe.KindRateLimit:
		return GenericErrorMessage
	}
	if !s.settings.Get().ExposeProviderErrors {
		return GenericErrorMessage
	}
	return gwErr.Error()
}
