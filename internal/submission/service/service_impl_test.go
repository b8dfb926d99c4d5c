package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/formpay/internal/clock"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	entryrepo "github.com/smallbiznis/formpay/internal/entry/repository"
	entryservice "github.com/smallbiznis/formpay/internal/entry/service"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	feedrepo "github.com/smallbiznis/formpay/internal/feed/repository"
	feedservice "github.com/smallbiznis/formpay/internal/feed/service"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/smallbiznis/formpay/internal/submission/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// scriptedOrchestrator returns canned results and records what it was asked.
type scriptedOrchestrator struct {
	auth         paymentdomain.AuthorizationResult
	payment      paymentdomain.PaymentResult
	subscription paymentdomain.SubscriptionResult
	checkout     paymentdomain.CheckoutResult
	cancelled    bool

	seen      []*paymentdomain.SubmissionContext
	processed int
}

func (o *scriptedOrchestrator) Authorize(_ context.Context, sc *paymentdomain.SubmissionContext) paymentdomain.AuthorizationResult {
	o.seen = append(o.seen, sc)
	return o.auth
}

func (o *scriptedOrchestrator) Capture(context.Context, paymentdomain.AuthorizationResult, *paymentdomain.SubmissionContext) paymentdomain.PaymentResult {
	return o.payment
}

func (o *scriptedOrchestrator) Cancel(context.Context, *entrydomain.Entry, *feeddomain.Feed) bool {
	return o.cancelled
}

func (o *scriptedOrchestrator) Subscribe(_ context.Context, sc *paymentdomain.SubmissionContext) paymentdomain.SubscriptionResult {
	o.seen = append(o.seen, sc)
	return o.subscription
}

func (o *scriptedOrchestrator) ProcessSubscription(context.Context, paymentdomain.SubscriptionResult, *paymentdomain.SubmissionContext) error {
	o.processed++
	return nil
}

func (o *scriptedOrchestrator) Checkout(_ context.Context, sc *paymentdomain.SubmissionContext, _, _ string) paymentdomain.CheckoutResult {
	o.seen = append(o.seen, sc)
	return o.checkout
}

type harness struct {
	svc     domain.Service
	entries *entryservice.Service
	feeds   feeddomain.Service
	orch    *scriptedOrchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entrydomain.Form{},
		&entrydomain.Entry{},
		&entrydomain.EntryMeta{},
		&entrydomain.EntryNote{},
		&feeddomain.FeedRecord{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	entries := entryservice.New(entryservice.Params{DB: db, Log: log, GenID: node, Repo: entryrepo.Provide(), Clock: clk})
	feeds := feedservice.New(feedservice.Params{DB: db, Log: log, GenID: node, Repo: feedrepo.Provide(), Clock: clk})
	orch := &scriptedOrchestrator{}

	return &harness{
		svc:     New(Params{Entries: entries, Feeds: feeds, Orchestrator: orch, Clock: clk, Log: log}),
		entries: entries,
		feeds:   feeds,
		orch:    orch,
	}
}

func (h *harness) form(t *testing.T, feed feeddomain.Feed) snowflake.ID {
	t.Helper()
	ctx := context.Background()
	form, err := h.entries.CreateForm(ctx, entrydomain.Form{Title: "Shop", Currency: "USD"})
	require.NoError(t, err)
	feed.FormID = form.ID
	feed.IsActive = true
	_, err = h.feeds.Create(ctx, feed)
	require.NoError(t, err)
	return form.ID
}

func productFeed() feeddomain.Feed {
	return feeddomain.Feed{
		Name:               "Widgets",
		TransactionType:    feeddomain.TransactionTypeProduct,
		PaymentAmountField: feeddomain.PaymentAmountFormTotal,
	}
}

func subscriptionFeed() feeddomain.Feed {
	return feeddomain.Feed{
		Name:               "Gold Plan",
		TransactionType:    feeddomain.TransactionTypeSubscription,
		PaymentAmountField: "3",
		BillingCycle:       feeddomain.BillingCycle{Length: 1, Unit: feeddomain.BillingUnitMonth},
		SetupFee:           feeddomain.SetupFee{Enabled: true, Field: "5"},
	}
}

func productInput() domain.Input {
	return domain.Input{
		Values:    map[string]any{"1": "Jane"},
		LineItems: []paymentdomain.LineItem{{Name: "Widget", Price: 9.995, Quantity: 2}},
		Token:     paymentdomain.Token{ID: "tok_visa"},
	}
}

func TestSubmitProductPayment(t *testing.T) {
	h := newHarness(t)
	formID := h.form(t, productFeed())
	h.orch.auth = paymentdomain.AuthorizationResult{IsAuthorized: true, TransactionID: "ch_1"}
	h.orch.payment = paymentdomain.PaymentResult{IsSuccess: true, TransactionID: "ch_1", Amount: 19.99, PaymentMethod: "Visa"}

	result, err := h.svc.Submit(context.Background(), formID, productInput())
	require.NoError(t, err)
	require.True(t, result.IsSuccess)

	require.Len(t, h.orch.seen, 1)
	assert.InDelta(t, 19.99, h.orch.seen[0].Data.PaymentAmount, 0.0001)

	entry, err := h.entries.GetEntry(context.Background(), result.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entrydomain.PaymentStatusPaid, entry.PaymentStatus)
	assert.Equal(t, "ch_1", entry.TransactionID)
	assert.Equal(t, "Visa", entry.PaymentMethod)
	assert.True(t, entry.IsFulfilled)

	notes, err := h.entries.ListNotes(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Payment has been completed. Amount: $19.99. Transaction Id: ch_1", notes[0].Body)
}

func TestSubmitAuthorizationOnly(t *testing.T) {
	h := newHarness(t)
	formID := h.form(t, productFeed())
	h.orch.auth = paymentdomain.AuthorizationResult{IsAuthorized: true, TransactionID: "ch_auth"}

	result, err := h.svc.Submit(context.Background(), formID, productInput())
	require.NoError(t, err)
	assert.True(t, result.IsSuccess)
	assert.Equal(t, entrydomain.PaymentStatusAuthorized, result.Entry.PaymentStatus)
	assert.Equal(t, "ch_auth", result.Entry.TransactionID)
}

func TestSubmitDeclined(t *testing.T) {
	h := newHarness(t)
	formID := h.form(t, productFeed())
	h.orch.auth = paymentdomain.AuthorizationResult{ErrorMessage: "Your card was declined."}

	result, err := h.svc.Submit(context.Background(), formID, productInput())
	require.NoError(t, err)
	assert.False(t, result.IsSuccess)
	assert.Equal(t, "Your card was declined.", result.ErrorMessage)
	assert.Equal(t, entrydomain.PaymentStatusFailed, result.Entry.PaymentStatus)

	notes, err := h.entries.ListNotes(context.Background(), result.Entry.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, entrydomain.NoteTypeError, notes[0].NoteType)
}

func TestSubmitSubscription(t *testing.T) {
	h := newHarness(t)
	formID := h.form(t, subscriptionFeed())
	h.orch.subscription = paymentdomain.SubscriptionResult{IsSuccess: true, SubscriptionID: "sub_1", CustomerID: "cus_1", Amount: 20}

	input := domain.Input{
		Values: map[string]any{"3": "$20.00", "5": "5"},
		Token:  paymentdomain.Token{ID: "tok_visa"},
	}
	result, err := h.svc.Submit(context.Background(), formID, input)
	require.NoError(t, err)
	require.True(t, result.IsSuccess)

	require.Len(t, h.orch.seen, 1)
	data := h.orch.seen[0].Data
	assert.InDelta(t, 20.0, data.PaymentAmount, 0.0001)
	assert.InDelta(t, 5.0, data.SetupFee, 0.0001)
	assert.Equal(t, 1, h.orch.processed)

	assert.Equal(t, entrydomain.PaymentStatusActive, result.Entry.PaymentStatus)
	assert.Equal(t, "sub_1", result.Entry.TransactionID)
	assert.Equal(t, entrydomain.TransactionTypeSubscription, result.Entry.TransactionType)
}

func TestSubmitRejectsZeroAmount(t *testing.T) {
	h := newHarness(t)
	formID := h.form(t, subscriptionFeed())

	_, err := h.svc.Submit(context.Background(), formID, domain.Input{Values: map[string]any{"3": "0"}})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Empty(t, h.orch.seen)
}

func TestSubmitValidatesCheckoutURLs(t *testing.T) {
	h := newHarness(t)
	formID := h.form(t, productFeed())

	input := productInput()
	input.Checkout = true
	_, err := h.svc.Submit(context.Background(), formID, input)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmitCheckout(t *testing.T) {
	h := newHarness(t)
	formID := h.form(t, productFeed())
	h.orch.checkout = paymentdomain.CheckoutResult{IsSuccess: true, SessionID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}

	input := productInput()
	input.Checkout = true
	input.SuccessURL = "https://shop.example.com/thanks"
	input.CancelURL = "https://shop.example.com/cart"

	result, err := h.svc.Submit(context.Background(), formID, input)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", result.CheckoutURL)
	assert.Equal(t, "cs_1", result.Entry.TransactionID)
	assert.Equal(t, entrydomain.PaymentStatusProcessing, result.Entry.PaymentStatus)

	url, err := h.entries.GetMeta(context.Background(), result.Entry.ID, entrydomain.MetaCheckoutURL)
	require.NoError(t, err)
	assert.Equal(t, result.CheckoutURL, url)
}

func TestSubmitWithoutActiveFeed(t *testing.T) {
	h := newHarness(t)
	form, err := h.entries.CreateForm(context.Background(), entrydomain.Form{Title: "Empty", Currency: "USD"})
	require.NoError(t, err)

	_, err = h.svc.Submit(context.Background(), form.ID, productInput())
	assert.ErrorIs(t, err, feeddomain.ErrNoActiveFeed)
}

func TestCancelSubscriptionEntry(t *testing.T) {
	h := newHarness(t)
	formID := h.form(t, subscriptionFeed())
	h.orch.subscription = paymentdomain.SubscriptionResult{IsSuccess: true, SubscriptionID: "sub_1", Amount: 20}
	result, err := h.svc.Submit(context.Background(), formID, domain.Input{
		Values: map[string]any{"3": "20"},
		Token:  paymentdomain.Token{ID: "tok_visa"},
	})
	require.NoError(t, err)

	cancelled, err := h.svc.Cancel(context.Background(), result.Entry.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	h.orch.cancelled = true
	cancelled, err = h.svc.Cancel(context.Background(), result.Entry.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	entry, err := h.entries.GetEntry(context.Background(), result.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entrydomain.PaymentStatusCancelled, entry.PaymentStatus)
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{"$1,234.50": 1234.5, "20": 20, "": 0, " 7.25 USD": 7.25}
	for raw, want := range cases {
		got, err := parseAmount(raw)
		require.NoError(t, err, raw)
		assert.InDelta(t, want, got, 0.0001, raw)
	}
	_, err := parseAmount("1.2.3")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
