package stripe

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

type PlanParams struct {
	ID              string
	Amount          int64
	Currency        string
	Interval        string
	IntervalCount   int
	ProductName     string
	TrialPeriodDays int
}

// CreatePlan creates a recurring plan. The plan id doubles as the idempotency key.
func (c *Client) CreatePlan(ctx context.Context, params PlanParams) (*Plan, error) {
	if err := requireID(params.ID, "plan"); err != nil {
		return nil, err
	}
	f := newForm()
	f.set("id", params.ID)
	f.Set("amount", strconv.FormatInt(params.Amount, 10))
	f.set("currency", params.Currency)
	f.set("interval", params.Interval)
	if params.IntervalCount > 0 {
		f.Set("interval_count", strconv.Itoa(params.IntervalCount))
	}
	f.set("product[name]", params.ProductName)
	if params.TrialPeriodDays > 0 {
		f.Set("trial_period_days", strconv.Itoa(params.TrialPeriodDays))
	}

	var plan Plan
	err := c.do(ctx, request{
		operation:      "plans.create",
		method:         http.MethodPost,
		path:           "/v1/plans",
		values:         f,
		idempotencyKey: "plan:" + params.ID,
	}, &plan)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// RetrievePlan returns (nil, nil) when the plan does not exist so callers can
// use it as an existence check.
func (c *Client) RetrievePlan(ctx context.Context, id string) (*Plan, error) {
	if err := requireID(id, "plan"); err != nil {
		return nil, err
	}
	var plan Plan
	err := c.do(ctx, request{
		operation: "plans.retrieve",
		method:    http.MethodGet,
		path:      resourcePath("/v1/plans", id),
	}, &plan)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
