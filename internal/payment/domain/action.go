package domain

import "github.com/bwmarrin/snowflake"

type ActionType string

const (
	ActionCompletePayment         ActionType = "complete_payment"
	ActionFailPayment             ActionType = "fail_payment"
	ActionRefundPayment           ActionType = "refund_payment"
	ActionCancelSubscription      ActionType = "cancel_subscription"
	ActionAddSubscriptionPayment  ActionType = "add_subscription_payment"
	ActionFailSubscriptionPayment ActionType = "fail_subscription_payment"
)

// Action is a webhook event normalized for the host. ID is the provider event
// id and is the dedupe key.
type Action struct {
	ID             string       `json:"id"`
	Type           ActionType   `json:"type"`
	EventType      string       `json:"event_type"`
	EntryID        snowflake.ID `json:"entry_id,omitempty"`
	TransactionID  string       `json:"transaction_id,omitempty"`
	SubscriptionID string       `json:"subscription_id,omitempty"`
	Amount         float64      `json:"amount,omitempty"`
	Note           string       `json:"note,omitempty"`
}
