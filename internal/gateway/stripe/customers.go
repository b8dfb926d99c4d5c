package stripe

import (
	"context"
	"net/http"
)

type CustomerParams struct {
	Description    string
	Email          string
	Source         string
	Coupon         string
	Balance        int64
	Metadata       map[string]string
	IdempotencyKey string
}

type CustomerUpdateParams struct {
	Source      string
	Description string
	Email       string
	Metadata    map[string]string
}

func (c *Client) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	f := newForm()
	f.set("description", params.Description)
	f.set("email", params.Email)
	f.set("source", params.Source)
	f.set("coupon", params.Coupon)
	f.setInt("balance", params.Balance)
	f.setMetadata(params.Metadata)

	var customer Customer
	err := c.do(ctx, request{
		operation:      "customers.create",
		method:         http.MethodPost,
		path:           "/v1/customers",
		values:         f,
		idempotencyKey: params.IdempotencyKey,
	}, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) RetrieveCustomer(ctx context.Context, id string) (*Customer, error) {
	if err := requireID(id, "customer"); err != nil {
		return nil, err
	}
	var customer Customer
	err := c.do(ctx, request{
		operation: "customers.retrieve",
		method:    http.MethodGet,
		path:      resourcePath("/v1/customers", id),
	}, &customer)
	if err != nil {
		return nil, err
	}
	if customer.Deleted {
		return nil, &Error{Kind: KindNotFound, Code: "resource_missing", Message: "No such customer: " + id}
	}
	return &customer, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, params CustomerUpdateParams) (*Customer, error) {
	if err := requireID(id, "customer"); err != nil {
		return nil, err
	}
	f := newForm()
	f.set("source", params.Source)
	f.set("description", params.Description)
	f.set("email", params.Email)
	f.setMetadata(params.Metadata)

	var customer Customer
	err := c.do(ctx, request{
		operation: "customers.update",
		method:    http.MethodPost,
		path:      resourcePath("/v1/customers", id),
		values:    f,
	}, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
