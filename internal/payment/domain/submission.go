package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
)

type LineItem struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int64   `json:"quantity" validate:"gte=0"`
}

// Total returns price times quantity, treating a zero quantity as one.
func (l LineItem) Total() float64 {
	q := l.Quantity
	if q <= 0 {
		q = 1
	}
	return l.Price * float64(q)
}

// Token is the client-side Stripe.js tokenization response.
type Token struct {
	ID           string `json:"id"`
	ErrorMessage string `json:"error_message"`
}

// Problem returns a user-facing reason why the token cannot be used, or "".
func (t Token) Problem() string {
	if msg := strings.TrimSpace(t.ErrorMessage); msg != "" {
		return msg
	}
	if strings.TrimSpace(t.ID) == "" {
		return "Unable to authorize card. No response from Stripe.js."
	}
	return ""
}

type SubmissionData struct {
	PaymentAmount float64    `json:"payment_amount"`
	SetupFee      float64    `json:"setup_fee"`
	TrialDays     int        `json:"trial_days"`
	LineItems     []LineItem `json:"line_items"`
	Token         Token      `json:"token"`
	CardType      string     `json:"card_type"`
}

// SubmissionContext bundles everything an orchestrator operation reads. It is
// not modified during an operation.
type SubmissionContext struct {
	Entry *entrydomain.Entry
	Form  *entrydomain.Form
	Feed  *feeddomain.Feed
	Data  SubmissionData
}

func (sc *SubmissionContext) EntryID() snowflake.ID {
	if sc == nil || sc.Entry == nil {
		return 0
	}
	return sc.Entry.ID
}

// Currency is the entry currency, falling back to the form's.
func (sc *SubmissionContext) Currency() string {
	if sc == nil {
		return ""
	}
	if sc.Entry != nil && sc.Entry.Currency != "" {
		return sc.Entry.Currency
	}
	if sc.Form != nil {
		return sc.Form.Currency
	}
	return ""
}
