package stripe

import (
	"context"
	"net/http"
)

type ChargeParams struct {
	Amount         int64
	Currency       string
	Description    string
	Customer       string
	Source         string
	ReceiptEmail   string
	Capture        bool
	Metadata       map[string]string
	IdempotencyKey string
}

func (p ChargeParams) encode() form {
	f := newForm()
	f.setInt("amount", p.Amount)
	f.set("currency", p.Currency)
	f.set("description", p.Description)
	f.set("customer", p.Customer)
	f.set("source", p.Source)
	f.set("receipt_email", p.ReceiptEmail)
	f.setBool("capture", p.Capture)
	f.setMetadata(p.Metadata)
	return f
}

type ChargeUpdateParams struct {
	Description string
	Metadata    map[string]string
}

func (c *Client) CreateCharge(ctx context.Context, params ChargeParams) (*Charge, error) {
	var charge Charge
	err := c.do(ctx, request{
		operation:      "charges.create",
		method:         http.MethodPost,
		path:           "/v1/charges",
		values:         params.encode(),
		idempotencyKey: params.IdempotencyKey,
	}, &charge)
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (c *Client) RetrieveCharge(ctx context.Context, id string) (*Charge, error) {
	if err := requireID(id, "charge"); err != nil {
		return nil, err
	}
	var charge Charge
	err := c.do(ctx, request{
		operation: "charges.retrieve",
		method:    http.MethodGet,
		path:      resourcePath("/v1/charges", id),
	}, &charge)
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (c *Client) UpdateCharge(ctx context.Context, id string, params ChargeUpdateParams) (*Charge, error) {
	if err := requireID(id, "charge"); err != nil {
		return nil, err
	}
	f := newForm()
	f.set("description", params.Description)
	f.setMetadata(params.Metadata)

	var charge Charge
	err := c.do(ctx, request{
		operation: "charges.update",
		method:    http.MethodPost,
		path:      resourcePath("/v1/charges", id),
		values:    f,
	}, &charge)
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (c *Client) CaptureCharge(ctx context.Context, id string) (*Charge, error) {
	if err := requireID(id, "charge"); err != nil {
		return nil, err
	}
	var charge Charge
	err := c.do(ctx, request{
		operation:      "charges.capture",
		method:         http.MethodPost,
		path:           resourcePath("/v1/charges", id) + "/capture",
		idempotencyKey: "capture:" + id,
	}, &charge)
	if err != nil {
		return nil, err
	}
	return &charge, nil
}
