package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
)

var (
	ErrInvalidInput  = errors.New("invalid_submission")
	ErrInvalidAmount = errors.New("invalid_payment_amount")
)

type Input struct {
	Values    map[string]any           `json:"values" validate:"required"`
	LineItems []paymentdomain.LineItem `json:"line_items" validate:"dive"`
	Token     paymentdomain.Token      `json:"token"`
	CardType  string                   `json:"card_type" validate:"max=40"`

	// Checkout sends product payments through a hosted Stripe Checkout page.
	Checkout   bool   `json:"checkout"`
	SuccessURL string `json:"success_url" validate:"required_if=Checkout true,omitempty,url"`
	CancelURL  string `json:"cancel_url" validate:"required_if=Checkout true,omitempty,url"`
}

type Result struct {
	Entry        *entrydomain.Entry `json:"entry"`
	IsSuccess    bool               `json:"is_success"`
	ErrorMessage string             `json:"error_message,omitempty"`
	CheckoutURL  string             `json:"checkout_url,omitempty"`
}

type Service interface {
	Submit(ctx context.Context, formID snowflake.ID, input Input) (Result, error)
	Cancel(ctx context.Context, entryID snowflake.ID) (bool, error)
}
