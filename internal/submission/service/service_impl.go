package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/currency"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/smallbiznis/formpay/internal/submission/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Entries      entrydomain.Service
	Feeds        feeddomain.Service
	Orchestrator paymentdomain.Orchestrator
	Clock        clock.Clock `optional:"true"`
	Log          *zap.Logger
}

type Service struct {
	entries      entrydomain.Service
	feeds        feeddomain.Service
	orchestrator paymentdomain.Orchestrator
	clock        clock.Clock
	validate     *validator.Validate
	log          *zap.Logger
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		entries:      p.Entries,
		feeds:        p.Feeds,
		orchestrator: p.Orchestrator,
		clock:        clk,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		log:          p.Log.Named("submission.service"),
	}
}

func (s *Service) Submit(ctx context.Context, formID snowflake.ID, input domain.Input) (domain.Result, error) {
	if err := s.validate.Struct(input); err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	form, err := s.entries.GetForm(ctx, formID)
	if err != nil {
		return domain.Result{}, err
	}
	feed, err := s.feeds.ActiveForForm(ctx, formID)
	if err != nil {
		return domain.Result{}, err
	}
	if input.Checkout && feed.IsSubscription() {
		return domain.Result{}, fmt.Errorf("%w: checkout is only available for product feeds", domain.ErrInvalidInput)
	}

	pending := entrydomain.Entry{
		FormID:        form.ID,
		FeedID:        feed.ID,
		Currency:      form.Currency,
		Values:        input.Values,
		PaymentStatus: entrydomain.PaymentStatusProcessing,
	}
	data, err := submissionData(feed, input, form.Currency, pending.Value)
	if err != nil {
		return domain.Result{}, err
	}
	if feed.IsSubscription() {
		pending.TransactionType = entrydomain.TransactionTypeSubscription
	} else {
		pending.TransactionType = entrydomain.TransactionTypePayment
	}

	entry, err := s.entries.CreateEntry(ctx, pending)
	if err != nil {
		return domain.Result{}, err
	}
	s.entries.Notify(ctx, &entry, entrydomain.EventFormSubmission)

	sc := &paymentdomain.SubmissionContext{Entry: &entry, Form: form, Feed: &feed, Data: data}
	log := s.log.With(
		zap.String("entry_id", entry.ID.String()),
		zap.String("feed_id", feed.ID.String()),
		zap.String("transaction_type", string(feed.TransactionType)),
	)

	switch {
	case feed.IsSubscription():
		return s.subscribe(ctx, sc, log)
	case input.Checkout:
		return s.checkout(ctx, sc, input, log)
	default:
		return s.charge(ctx, sc, log)
	}
}

func (s *Service) charge(ctx context.Context, sc *paymentdomain.SubmissionContext, log *zap.Logger) (domain.Result, error) {
	auth := s.orchestrator.Authorize(ctx, sc)
	if !auth.IsAuthorized {
		return s.fail(ctx, sc, auth.ErrorMessage, log)
	}

	payment := s.orchestrator.Capture(ctx, auth, sc)
	if payment.IsEmpty() {
		entry, err := s.entries.UpdatePayment(ctx, sc.EntryID(), entrydomain.PaymentUpdate{
			TransactionID: auth.TransactionID,
			Status:        entrydomain.PaymentStatusAuthorized,
			Amount:        &sc.Data.PaymentAmount,
		})
		if err != nil {
			return domain.Result{}, err
		}
		s.note(ctx, entry.ID, entrydomain.NoteTypeSuccess, fmt.Sprintf("Payment has been authorized. Amount: %s. Transaction Id: %s",
			currency.Format(sc.Data.PaymentAmount, entry.Currency), auth.TransactionID))
		log.Info("payment authorized without capture", zap.String("transaction_id", auth.TransactionID))
		return domain.Result{Entry: entry, IsSuccess: true}, nil
	}
	if !payment.IsSuccess {
		return s.fail(ctx, sc, payment.ErrorMessage, log)
	}

	now := s.clock.Now().UTC()
	entry, err := s.entries.UpdatePayment(ctx, sc.EntryID(), entrydomain.PaymentUpdate{
		TransactionID: payment.TransactionID,
		Status:        entrydomain.PaymentStatusPaid,
		Amount:        &payment.Amount,
		Method:        payment.PaymentMethod,
		PaymentDate:   &now,
		IsFulfilled:   boolPtr(true),
	})
	if err != nil {
		return domain.Result{}, err
	}
	s.note(ctx, entry.ID, entrydomain.NoteTypeSuccess, fmt.Sprintf("Payment has been completed. Amount: %s. Transaction Id: %s",
		currency.Format(payment.Amount, entry.Currency), payment.TransactionID))
	s.entries.Notify(ctx, entry, entrydomain.EventCompletePayment)

	log.Info("payment captured", zap.String("transaction_id", payment.TransactionID))
	return domain.Result{Entry: entry, IsSuccess: true}, nil
}

func (s *Service) subscribe(ctx context.Context, sc *paymentdomain.SubmissionContext, log *zap.Logger) (domain.Result, error) {
	result := s.orchestrator.Subscribe(ctx, sc)
	if !result.IsSuccess {
		return s.fail(ctx, sc, result.ErrorMessage, log)
	}

	now := s.clock.Now().UTC()
	entry, err := s.entries.UpdatePayment(ctx, sc.EntryID(), entrydomain.PaymentUpdate{
		TransactionID:   result.SubscriptionID,
		TransactionType: entrydomain.TransactionTypeSubscription,
		Status:          entrydomain.PaymentStatusActive,
		Amount:          &result.Amount,
		PaymentDate:     &now,
	})
	if err != nil {
		return domain.Result{}, err
	}
	sc.Entry = entry

	if err := s.orchestrator.ProcessSubscription(ctx, result, sc); err != nil {
		log.Error("subscription post-processing failed", zap.Error(err))
	}
	s.note(ctx, entry.ID, entrydomain.NoteTypeSuccess, fmt.Sprintf("Subscription has been created. Subscription Id: %s", result.SubscriptionID))
	s.entries.Notify(ctx, entry, entrydomain.EventCreateSubscription)

	log.Info("subscription created", zap.String("subscription_id", result.SubscriptionID))
	return domain.Result{Entry: entry, IsSuccess: true}, nil
}

func (s *Service) checkout(ctx context.Context, sc *paymentdomain.SubmissionContext, input domain.Input, log *zap.Logger) (domain.Result, error) {
	session := s.orchestrator.Checkout(ctx, sc, input.SuccessURL, input.CancelURL)
	if !session.IsSuccess {
		return s.fail(ctx, sc, session.ErrorMessage, log)
	}

	entry, err := s.entries.UpdatePayment(ctx, sc.EntryID(), entrydomain.PaymentUpdate{
		TransactionID: session.SessionID,
		Status:        entrydomain.PaymentStatusProcessing,
		Amount:        &sc.Data.PaymentAmount,
	})
	if err != nil {
		return domain.Result{}, err
	}
	if err := s.entries.SetMeta(ctx, entry.ID, entrydomain.MetaCheckoutURL, session.URL); err != nil {
		log.Warn("checkout url not stored", zap.Error(err))
	}

	log.Info("checkout session created", zap.String("session_id", session.SessionID))
	return domain.Result{Entry: entry, IsSuccess: true, CheckoutURL: session.URL}, nil
}

// fail marks the entry failed and records why. The provider message is returned to the caller.
func (s *Service) fail(ctx context.Context, sc *paymentdomain.SubmissionContext, message string, log *zap.Logger) (domain.Result, error) {
	entry, err := s.entries.UpdatePayment(ctx, sc.EntryID(), entrydomain.PaymentUpdate{Status: entrydomain.PaymentStatusFailed})
	if err != nil {
		return domain.Result{}, err
	}
	s.note(ctx, entry.ID, entrydomain.NoteTypeError, message)
	s.entries.Notify(ctx, entry, entrydomain.EventFailPayment)

	log.Info("payment failed", zap.String("reason", message))
	return domain.Result{Entry: entry, ErrorMessage: message}, nil
}

func (s *Service) Cancel(ctx context.Context, entryID snowflake.ID) (bool, error) {
	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return false, err
	}
	if entry.TransactionType != entrydomain.TransactionTypeSubscription {
		return false, fmt.Errorf("%w: entry is not a subscription", domain.ErrInvalidInput)
	}
	feed, err := s.feeds.Get(ctx, entry.FeedID)
	if err != nil && !errors.Is(err, feeddomain.ErrNotFound) {
		return false, err
	}

	var feedRef *feeddomain.Feed
	if err == nil {
		feedRef = &feed
	}
	if !s.orchestrator.Cancel(ctx, entry, feedRef) {
		return false, nil
	}

	if _, err := s.entries.UpdatePayment(ctx, entry.ID, entrydomain.PaymentUpdate{Status: entrydomain.PaymentStatusCancelled}); err != nil {
		return false, err
	}
	s.note(ctx, entry.ID, entrydomain.NoteTypeSuccess, fmt.Sprintf("Subscription has been cancelled. Subscription Id: %s", entry.TransactionID))
	s.entries.Notify(ctx, entry, entrydomain.EventCancelSubscription)
	return true, nil
}

func (s *Service) note(ctx context.Context, entryID snowflake.ID, noteType entrydomain.NoteType, body string) {
	if err := s.entries.AddNote(ctx, entryID, noteType, body); err != nil {
		s.log.Warn("entry note not stored", zap.String("entry_id", entryID.String()), zap.Error(err))
	}
}

func boolPtr(v bool) *bool { return &v }
