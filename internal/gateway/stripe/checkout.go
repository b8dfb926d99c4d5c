package stripe

import (
	"context"
	"net/http"
	"strconv"
)

type CheckoutLineItem struct {
	Name       string
	UnitAmount int64
	Currency   string
	Quantity   int64
}

type CheckoutSessionParams struct {
	Mode              string
	SuccessURL        string
	CancelURL         string
	CustomerEmail     string
	ClientReferenceID string
	LineItems         []CheckoutLineItem
	Metadata          map[string]string
	IdempotencyKey    string
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	mode := params.Mode
	if mode == "" {
		mode = "payment"
	}
	f := newForm()
	f.set("mode", mode)
	f.set("success_url", params.SuccessURL)
	f.set("cancel_url", params.CancelURL)
	f.set("customer_email", params.CustomerEmail)
	f.set("client_reference_id", params.ClientReferenceID)
	for i, item := range params.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		f.set(prefix+"[price_data][currency]", item.Currency)
		f.set(prefix+"[price_data][product_data][name]", item.Name)
		f.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		f.Set(prefix+"[quantity]", strconv.FormatInt(quantity, 10))
	}
	f.setMetadata(params.Metadata)

	var session CheckoutSession
	err := c.do(ctx, request{
		operation:      "checkout.sessions.create",
		method:         http.MethodPost,
		path:           "/v1/checkout/sessions",
		values:         f,
		idempotencyKey: params.IdempotencyKey,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RetrievePaymentIntent loads a payment intent. LatestCharge holds the id of the
// charge that settled it.
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if err := requireID(id, "payment intent"); err != nil {
		return nil, err
	}
	var intent PaymentIntent
	err := c.do(ctx, request{
		operation: "payment_intents.retrieve",
		method:    http.MethodGet,
		path:      resourcePath("/v1/payment_intents", id),
	}, &intent)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}
