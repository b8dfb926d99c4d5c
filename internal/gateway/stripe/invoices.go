package stripe

import (
	"context"
	"net/http"
)

type InvoiceItemParams struct {
	Customer       string
	Amount         int64
	Currency       string
	Description    string
	IdempotencyKey string
}

// CreateInvoiceItem adds a one-off line to the customer's next invoice.
func (c *Client) CreateInvoiceItem(ctx context.Context, params InvoiceItemParams) (*InvoiceItem, error) {
	f := newForm()
	f.set("customer", params.Customer)
	f.setInt("amount", params.Amount)
	f.set("currency", params.Currency)
	f.set("description", params.Description)

	var item InvoiceItem
	err := c.do(ctx, request{
		operation:      "invoiceitems.create",
		method:         http.MethodPost,
		path:           "/v1/invoiceitems",
		values:         f,
		idempotencyKey: params.IdempotencyKey,
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
