package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/entry/domain"
	"github.com/smallbiznis/formpay/internal/entry/repository"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type sentNotification struct {
	entryID snowflake.ID
	event   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, _ *domain.Form, entry *domain.Entry, event string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{entryID: entry.ID, event: event})
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Form{},
		&domain.Entry{},
		&domain.EntryMeta{},
		&domain.EntryNote{},
		&domain.WebhookEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	return New(Params{
		DB:       db,
		Log:      zaptest.NewLogger(t),
		GenID:    node,
		Repo:     repository.Provide(),
		Notifier: notifier,
		Clock:    clock.NewFakeClock(time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)),
	}), notifier
}

func seedEntry(t *testing.T, svc *Service, transactionID string) domain.Entry {
	t.Helper()
	ctx := context.Background()
	form, err := svc.CreateForm(ctx, domain.Form{Title: "Order", Currency: "usd"})
	require.NoError(t, err)
	entry, err := svc.CreateEntry(ctx, domain.Entry{
		FormID:          form.ID,
		FeedID:          3,
		Currency:        form.Currency,
		Values:          map[string]any{"1": "Jane", "2": "jane@example.com"},
		TransactionID:   transactionID,
		TransactionType: domain.TransactionTypeSubscription,
		PaymentStatus:   domain.PaymentStatusActive,
		PaymentAmount:   20,
	})
	require.NoError(t, err)
	return entry
}

func TestCreateFormValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateForm(ctx, domain.Form{Title: "", Currency: "USD"})
	assert.ErrorIs(t, err, domain.ErrInvalidForm)

	_, err = svc.CreateForm(ctx, domain.Form{Title: "Order", Currency: "US"})
	assert.ErrorIs(t, err, domain.ErrInvalidForm)

	_, err = svc.CreateForm(ctx, domain.Form{
		Title:         "Order",
		Currency:      "USD",
		Notifications: []domain.Notification{{Event: domain.EventCompletePayment, To: []string{"not-an-email"}}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidForm)
}

func TestCreateAndGetForm(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateForm(ctx, domain.Form{
		Title:    " Donations ",
		Currency: "eur",
		Notifications: []domain.Notification{
			{Event: domain.EventCompletePayment, To: []string{"ops@example.com"}, Subject: "Paid"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Donations", created.Title)
	assert.Equal(t, "EUR", created.Currency)

	got, err := svc.GetForm(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.NotificationsFor(domain.EventCompletePayment), 1)
	assert.Empty(t, got.NotificationsFor(domain.EventRefundPayment))

	_, err = svc.GetForm(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrFormNotFound)
}

func TestEntryLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	entry := seedEntry(t, svc, "")

	got, err := svc.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Value("1"))
	assert.Equal(t, "USD", got.Currency)

	paid := time.Date(2026, 2, 3, 5, 0, 0, 0, time.UTC)
	updated, err := svc.UpdatePayment(ctx, entry.ID, domain.PaymentUpdate{
		TransactionID: "ch_1",
		Status:        domain.PaymentStatusPaid,
		Amount:        ptr(19.99),
		Method:        "Visa",
		PaymentDate:   &paid,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)

	found, err := svc.FindByTransactionID(ctx, "ch_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entry.ID, found.ID)
	assert.InDelta(t, 19.99, found.PaymentAmount, 0.0001)
	assert.Equal(t, "Visa", found.PaymentMethod)

	missing, err := svc.FindByTransactionID(ctx, "ch_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.UpdatePayment(ctx, 12345, domain.PaymentUpdate{Status: domain.PaymentStatusPaid})
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestMetaUpsert(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	entry := seedEntry(t, svc, "sub_1")

	value, err := svc.GetMeta(ctx, entry.ID, domain.MetaStripeCustomerID)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, svc.SetMeta(ctx, entry.ID, domain.MetaStripeCustomerID, "cus_1"))
	require.NoError(t, svc.SetMeta(ctx, entry.ID, domain.MetaStripeCustomerID, "cus_2"))

	value, err = svc.GetMeta(ctx, entry.ID, domain.MetaStripeCustomerID)
	require.NoError(t, err)
	assert.Equal(t, "cus_2", value)
}

func TestApplyActionOnce(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()
	entry := seedEntry(t, svc, "sub_1")

	action := &paymentdomain.Action{
		ID:             "evt_1",
		Type:           paymentdomain.ActionAddSubscriptionPayment,
		EventType:      "invoice.payment_succeeded",
		EntryID:        entry.ID,
		TransactionID:  "ch_1",
		SubscriptionID: "sub_1",
		Amount:         20,
		Note:           "Subscription payment has been paid. Amount: $20.00. Subscription Id: sub_1",
	}

	applied, err := svc.ApplyAction(ctx, action)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = svc.ApplyAction(ctx, action)
	require.NoError(t, err)
	assert.False(t, applied)

	notes, err := svc.ListNotes(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, action.Note, notes[0].Body)
	assert.Equal(t, domain.NoteTypeSuccess, notes[0].NoteType)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, domain.EventAddSubscriptionPaid, notifier.sent[0].event)
}

func TestApplyActionStatusTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		action paymentdomain.ActionType
		status domain.PaymentStatus
		note   string
	}{
		{paymentdomain.ActionRefundPayment, domain.PaymentStatusRefunded, "Payment has been refunded. Amount: $5.00. Transaction Id: ch_9"},
		{paymentdomain.ActionCancelSubscription, domain.PaymentStatusCancelled, "Subscription has been cancelled. Subscription Id: sub_9"},
		{paymentdomain.ActionFailSubscriptionPayment, domain.PaymentStatusFailed, "Subscription payment has failed. Amount: $5.00. Subscription Id: sub_9"},
		{paymentdomain.ActionCompletePayment, domain.PaymentStatusPaid, "Payment has been completed. Amount: $5.00. Transaction Id: ch_9"},
		{paymentdomain.ActionFailPayment, domain.PaymentStatusFailed, "Payment has failed. Amount: $5.00. Transaction Id: ch_9"},
	}
	for i, tc := range cases {
		entry := seedEntry(t, svc, fmt.Sprintf("sub_%d", i))
		applied, err := svc.ApplyAction(ctx, &paymentdomain.Action{
			ID:             fmt.Sprintf("evt_%d", i),
			Type:           tc.action,
			EntryID:        entry.ID,
			TransactionID:  "ch_9",
			SubscriptionID: "sub_9",
			Amount:         5,
		})
		require.NoError(t, err, tc.action)
		assert.True(t, applied, tc.action)

		got, err := svc.GetEntry(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.status, got.PaymentStatus, tc.action)

		notes, err := svc.ListNotes(ctx, entry.ID)
		require.NoError(t, err)
		require.Len(t, notes, 1, tc.action)
		assert.Equal(t, tc.note, notes[0].Body, tc.action)
	}
}

func TestCompletedPaymentIsFoundByChargeID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	entry := seedEntry(t, svc, "cs_1")

	applied, err := svc.ApplyAction(ctx, &paymentdomain.Action{
		ID:            "evt_paid",
		Type:          paymentdomain.ActionCompletePayment,
		EntryID:       entry.ID,
		TransactionID: "ch_1",
		Amount:        20,
	})
	require.NoError(t, err)
	require.True(t, applied)

	found, err := svc.FindByTransactionID(ctx, "ch_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entry.ID, found.ID)
	assert.Equal(t, domain.TransactionTypePayment, found.TransactionType)
	assert.True(t, found.IsFulfilled)

	stale, err := svc.FindByTransactionID(ctx, "cs_1")
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestApplyActionUnknownEntry(t *testing.T) {
	svc, notifier := newTestService(t)

	_, err := svc.ApplyAction(context.Background(), &paymentdomain.Action{
		ID:      "evt_missing",
		Type:    paymentdomain.ActionRefundPayment,
		EntryID: 4242,
	})
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.Empty(t, notifier.sent)

	// the rolled back event id can be retried
	entry := seedEntry(t, svc, "ch_1")
	applied, err := svc.ApplyAction(context.Background(), &paymentdomain.Action{
		ID:      "evt_missing",
		Type:    paymentdomain.ActionRefundPayment,
		EntryID: entry.ID,
	})
	require.NoError(t, err)
	assert.True(t, applied)
}
