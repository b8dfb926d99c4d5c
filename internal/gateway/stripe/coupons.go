package stripe

import (
	"context"
	"errors"
	"net/http"
)

// RetrieveCoupon returns (nil, nil) when the coupon does not exist.
func (c *Client) RetrieveCoupon(ctx context.Context, id string) (*Coupon, error) {
	if err := requireID(id, "coupon"); err != nil {
		return nil, err
	}
	var coupon Coupon
	err := c.do(ctx, request{
		operation: "coupons.retrieve",
		method:    http.MethodGet,
		path:      resourcePath("/v1/coupons", id),
	}, &coupon)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}
