package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusProcessing PaymentStatus = "Processing"
	PaymentStatusAuthorized PaymentStatus = "Authorized"
	PaymentStatusPaid       PaymentStatus = "Paid"
	PaymentStatusActive     PaymentStatus = "Active"
	PaymentStatusRefunded   PaymentStatus = "Refunded"
	PaymentStatusCancelled  PaymentStatus = "Cancelled"
	PaymentStatusFailed     PaymentStatus = "Failed"
)

type TransactionType string

const (
	TransactionTypePayment      TransactionType = "payment"
	TransactionTypeSubscription TransactionType = "subscription"
)

// Entry meta keys.
const (
	MetaStripeCustomerID = "stripe_customer_id"
	MetaCheckoutURL      = "stripe_checkout_url"
)

// Notification events.
const (
	EventFormSubmission      = "form_submission"
	EventCompletePayment     = "complete_payment"
	EventRefundPayment       = "refund_payment"
	EventFailPayment         = "fail_payment"
	EventCreateSubscription  = "create_subscription"
	EventCancelSubscription  = "cancel_subscription"
	EventAddSubscriptionPaid = "add_subscription_payment"
	EventFailSubscriptionPay = "fail_subscription_payment"
)

type Notification struct {
	Event   string   `json:"event"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Message string   `json:"message"`
}

type Form struct {
	ID            snowflake.ID                      `json:"id" gorm:"primaryKey"`
	Title         string                            `json:"title" gorm:"type:text;not null"`
	Currency      string                            `json:"currency" gorm:"type:text;not null"`
	Notifications datatypes.JSONSlice[Notification] `json:"notifications" gorm:"not null"`
	CreatedAt     time.Time                         `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time                         `json:"updated_at" gorm:"not null"`
}

func (Form) TableName() string { return "forms" }

// NotificationsFor returns the notifications configured for event.
func (f *Form) NotificationsFor(event string) []Notification {
	if f == nil {
		return nil
	}
	var out []Notification
	for _, n := range f.Notifications {
		if n.Event == event {
			out = append(out, n)
		}
	}
	return out
}

type Entry struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	FormID          snowflake.ID      `json:"form_id" gorm:"not null;index"`
	FeedID          snowflake.ID      `json:"feed_id" gorm:"not null"`
	Currency        string            `json:"currency" gorm:"type:text;not null"`
	Values          datatypes.JSONMap `json:"values" gorm:"column:field_values;not null"`
	TransactionID   string            `json:"transaction_id" gorm:"type:text;index"`
	TransactionType TransactionType   `json:"transaction_type" gorm:"type:text"`
	PaymentStatus   PaymentStatus     `json:"payment_status" gorm:"type:text"`
	PaymentAmount   float64           `json:"payment_amount"`
	PaymentMethod   string            `json:"payment_method" gorm:"type:text"`
	PaymentDate     *time.Time        `json:"payment_date"`
	IsFulfilled     bool              `json:"is_fulfilled"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null"`
}

func (Entry) TableName() string { return "entries" }

// Value returns the submitted value of a field as a string.
func (e *Entry) Value(fieldID string) string {
	if e == nil || fieldID == "" {
		return ""
	}
	raw, ok := e.Values[fieldID]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

type EntryMeta struct {
	EntryID   snowflake.ID `gorm:"primaryKey"`
	MetaKey   string       `gorm:"primaryKey;type:text"`
	MetaValue string       `gorm:"type:text;not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

func (EntryMeta) TableName() string { return "entry_meta" }

type NoteType string

const (
	NoteTypeSuccess NoteType = "success"
	NoteTypeError   NoteType = "error"
	NoteTypeNote    NoteType = "note"
)

type EntryNote struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	EntryID   snowflake.ID `json:"entry_id" gorm:"not null;index"`
	NoteType  NoteType     `json:"note_type" gorm:"type:text;not null"`
	Body      string       `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (EntryNote) TableName() string { return "entry_notes" }

type WebhookEventStatus string

const (
	WebhookEventReceived  WebhookEventStatus = "received"
	WebhookEventProcessed WebhookEventStatus = "processed"
)

// WebhookEvent records a provider event id once so replays are applied at most once.
type WebhookEvent struct {
	ID          snowflake.ID       `gorm:"primaryKey"`
	EventID     string             `gorm:"type:text;not null;uniqueIndex"`
	EventType   string             `gorm:"type:text;not null"`
	EntryID     snowflake.ID       `gorm:"not null"`
	Status      WebhookEventStatus `gorm:"type:text;not null"`
	ReceivedAt  time.Time          `gorm:"not null"`
	ProcessedAt *time.Time
}

func (WebhookEvent) TableName() string { return "webhook_events" }
