package domain

type AuthorizationResult struct {
	IsAuthorized  bool   `json:"is_authorized"`
	TransactionID string `json:"transaction_id,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

type PaymentResult struct {
	IsSuccess     bool    `json:"is_success"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	ErrorMessage  string  `json:"error_message,omitempty"`
}

// IsEmpty reports whether capture was deliberately skipped.
func (r PaymentResult) IsEmpty() bool {
	return r == PaymentResult{}
}

type SubscriptionResult struct {
	IsSuccess      bool    `json:"is_success"`
	SubscriptionID string  `json:"subscription_id,omitempty"`
	CustomerID     string  `json:"customer_id,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

type CheckoutResult struct {
	IsSuccess    bool   `json:"is_success"`
	SessionID    string `json:"session_id,omitempty"`
	URL          string `json:"url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
