package stripe

import "encoding/json"

type List[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
	URL     string `json:"url"`
}

type Card struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type Charge struct {
	ID             string            `json:"id"`
	Object         string            `json:"object"`
	Amount         int64             `json:"amount"`
	AmountCaptured int64             `json:"amount_captured"`
	AmountRefunded int64             `json:"amount_refunded"`
	Captured       bool              `json:"captured"`
	Paid           bool              `json:"paid"`
	Refunded       bool              `json:"refunded"`
	Currency       string            `json:"currency"`
	Customer       string            `json:"customer"`
	Description    string            `json:"description"`
	Invoice        string            `json:"invoice"`
	PaymentIntent  string            `json:"payment_intent"`
	ReceiptEmail   string            `json:"receipt_email"`
	Status         string            `json:"status"`
	Source         *Card             `json:"source"`
	Metadata       map[string]string `json:"metadata"`
	Livemode       bool              `json:"livemode"`
	Created        int64             `json:"created"`
}

type Customer struct {
	ID            string             `json:"id"`
	Object        string             `json:"object"`
	Description   string             `json:"description"`
	Email         string             `json:"email"`
	Balance       int64              `json:"balance"`
	DefaultSource string             `json:"default_source"`
	Deleted       bool               `json:"deleted"`
	Metadata      map[string]string  `json:"metadata"`
	Subscriptions List[Subscription] `json:"subscriptions"`
	Livemode      bool               `json:"livemode"`
	Created       int64              `json:"created"`
}

type Plan struct {
	ID              string `json:"id"`
	Object          string `json:"object"`
	Active          bool   `json:"active"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Interval        string `json:"interval"`
	IntervalCount   int    `json:"interval_count"`
	Nickname        string `json:"nickname"`
	Product         string `json:"product"`
	TrialPeriodDays int    `json:"trial_period_days"`
	Livemode        bool   `json:"livemode"`
}

type SubscriptionItem struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Plan     *Plan  `json:"plan"`
	Quantity int64  `json:"quantity"`
}

type Subscription struct {
	ID                string                 `json:"id"`
	Object            string                 `json:"object"`
	Customer          string                 `json:"customer"`
	Status            string                 `json:"status"`
	CancelAtPeriodEnd bool                   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64                  `json:"current_period_end"`
	CanceledAt        int64                  `json:"canceled_at"`
	Plan              *Plan                  `json:"plan"`
	Items             List[SubscriptionItem] `json:"items"`
	Metadata          map[string]string      `json:"metadata"`
	Livemode          bool                   `json:"livemode"`
}

type InvoiceLine struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	Type         string `json:"type"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Subscription string `json:"subscription"`
	Plan         *Plan  `json:"plan"`
}

type Invoice struct {
	ID              string            `json:"id"`
	Object          string            `json:"object"`
	Customer        string            `json:"customer"`
	Subscription    string            `json:"subscription"`
	Charge          string            `json:"charge"`
	AmountDue       int64             `json:"amount_due"`
	AmountPaid      int64             `json:"amount_paid"`
	StartingBalance int64             `json:"starting_balance"`
	Currency        string            `json:"currency"`
	Paid            bool              `json:"paid"`
	Lines           List[InvoiceLine] `json:"lines"`
	Livemode        bool              `json:"livemode"`
}

// SubscriptionLine returns the first line of type subscription.
func (inv *Invoice) SubscriptionLine() (InvoiceLine, bool) {
	if inv == nil {
		return InvoiceLine{}, false
	}
	for _, line := range inv.Lines.Data {
		if line.Type == "subscription" {
			return line, true
		}
	}
	return InvoiceLine{}, false
}

// SubscriptionID returns the subscription a line belongs to. Legacy API versions
// use the subscription id as the line id.
func (l InvoiceLine) SubscriptionID() string {
	if l.Subscription != "" {
		return l.Subscription
	}
	return l.ID
}

type InvoiceItem struct {
	ID          string `json:"id"`
	Object      string `json:"object"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Customer    string `json:"customer"`
	Description string `json:"description"`
	Invoice     string `json:"invoice"`
}

type Coupon struct {
	ID         string  `json:"id"`
	Object     string  `json:"object"`
	AmountOff  int64   `json:"amount_off"`
	PercentOff float64 `json:"percent_off"`
	Currency   string  `json:"currency"`
	Duration   string  `json:"duration"`
	Valid      bool    `json:"valid"`
}

type CheckoutSession struct {
	ID                string            `json:"id"`
	Object            string            `json:"object"`
	URL               string            `json:"url"`
	Mode              string            `json:"mode"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Customer          string            `json:"customer"`
	PaymentIntent     string            `json:"payment_intent"`
	Subscription      string            `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	Livemode          bool              `json:"livemode"`
}

type PaymentIntent struct {
	ID           string            `json:"id"`
	Object       string            `json:"object"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	LatestCharge string            `json:"latest_charge"`
	Customer     string            `json:"customer"`
	Metadata     map[string]string `json:"metadata"`
	Livemode     bool              `json:"livemode"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

type Event struct {
	ID         string    `json:"id"`
	Object     string    `json:"object"`
	Type       string    `json:"type"`
	Livemode   bool      `json:"livemode"`
	Created    int64     `json:"created"`
	APIVersion string    `json:"api_version"`
	Data       EventData `json:"data"`
}

// DecodeObject unmarshals data.object into v.
func (e *Event) DecodeObject(v any) error {
	return json.Unmarshal(e.Data.Object, v)
}
