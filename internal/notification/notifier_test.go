package notification

import (
	"context"
	"errors"
	"testing"

	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	"github.com/smallbiznis/formpay/internal/providers/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type outbox struct {
	sent []email.Message
	fail map[string]bool
}

func (o *outbox) Send(_ context.Context, msg email.Message) error {
	if o.fail[msg.To[0]] {
		return errors.New("mailbox unavailable")
	}
	o.sent = append(o.sent, msg)
	return nil
}

func fixtures() (*entrydomain.Form, *entrydomain.Entry) {
	form := &entrydomain.Form{
		ID:       1,
		Title:    "Membership",
		Currency: "USD",
		Notifications: []entrydomain.Notification{
			{
				Event:   entrydomain.EventCompletePayment,
				To:      []string{"ops@example.com"},
				Subject: "{form_title}: entry {entry_id} paid",
				Message: "Hello {field:1},\nwe received {payment_amount} ({transaction_id}). {unknown}",
			},
			{
				Event:   entrydomain.EventRefundPayment,
				To:      []string{"refunds@example.com"},
				Subject: "Refund",
			},
		},
	}
	entry := &entrydomain.Entry{
		ID:            42,
		Currency:      "USD",
		Values:        map[string]any{"1": "Jane"},
		TransactionID: "ch_1",
		PaymentAmount: 1234.5,
		PaymentStatus: entrydomain.PaymentStatusPaid,
	}
	return form, entry
}

func TestNotifySendsMatchingNotifications(t *testing.T) {
	box := &outbox{}
	n := New(Params{Email: box, Log: zaptest.NewLogger(t)})
	form, entry := fixtures()

	require.NoError(t, n.Notify(context.Background(), form, entry, entrydomain.EventCompletePayment))
	require.Len(t, box.sent, 1)
	assert.Equal(t, []string{"ops@example.com"}, box.sent[0].To)
	assert.Equal(t, "Membership: entry 42 paid", box.sent[0].Subject)
	assert.Equal(t, "Hello Jane,\nwe received $1,234.50 (ch_1). {unknown}", box.sent[0].Body)
}

func TestNotifyWithoutConfiguredEvent(t *testing.T) {
	box := &outbox{}
	n := New(Params{Email: box, Log: zaptest.NewLogger(t)})
	form, entry := fixtures()

	require.NoError(t, n.Notify(context.Background(), form, entry, entrydomain.EventCancelSubscription))
	assert.Empty(t, box.sent)
}

func TestNotifyReportsDeliveryFailure(t *testing.T) {
	box := &outbox{fail: map[string]bool{"refunds@example.com": true}}
	n := New(Params{Email: box, Log: zaptest.NewLogger(t)})
	form, entry := fixtures()

	err := n.Notify(context.Background(), form, entry, entrydomain.EventRefundPayment)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refunds@example.com")
}
