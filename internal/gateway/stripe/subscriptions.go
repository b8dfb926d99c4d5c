package stripe

import (
	"context"
	"net/http"
	"strconv"
)

type SubscriptionParams struct {
	Customer       string
	Plan           string
	Coupon         string
	Metadata       map[string]string
	IdempotencyKey string
}

type SubscriptionListParams struct {
	Customer string
	Status   string
	Limit    int
}

func (c *Client) CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error) {
	f := newForm()
	f.set("customer", params.Customer)
	f.set("items[0][plan]", params.Plan)
	f.set("coupon", params.Coupon)
	f.setMetadata(params.Metadata)

	var sub Subscription
	err := c.do(ctx, request{
		operation:      "subscriptions.create",
		method:         http.MethodPost,
		path:           "/v1/subscriptions",
		values:         f,
		idempotencyKey: params.IdempotencyKey,
	}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) ListSubscriptions(ctx context.Context, params SubscriptionListParams) (*List[Subscription], error) {
	f := newForm()
	f.set("customer", params.Customer)
	f.set("status", params.Status)
	if params.Limit > 0 {
		f.Set("limit", strconv.Itoa(params.Limit))
	}

	var list List[Subscription]
	err := c.do(ctx, request{
		operation: "subscriptions.list",
		method:    http.MethodGet,
		path:      "/v1/subscriptions",
		values:    f,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// CancelSubscriptionAtPeriodEnd leaves the subscription active until the end of
// the current billing period.
func (c *Client) CancelSubscriptionAtPeriodEnd(ctx context.Context, id string) (*Subscription, error) {
	if err := requireID(id, "subscription"); err != nil {
		return nil, err
	}
	f := newForm()
	f.setBool("cancel_at_period_end", true)

	var sub Subscription
	err := c.do(ctx, request{
		operation: "subscriptions.update",
		method:    http.MethodPost,
		path:      resourcePath("/v1/subscriptions", id),
		values:    f,
	}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) CancelSubscription(ctx context.Context, id string) (*Subscription, error) {
	if err := requireID(id, "subscription"); err != nil {
		return nil, err
	}
	var sub Subscription
	err := c.do(ctx, request{
		operation: "subscriptions.cancel",
		method:    http.MethodDelete,
		path:      resourcePath("/v1/subscriptions", id),
	}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
