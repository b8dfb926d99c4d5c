package stripe

import (
	"context"
	"net/http"
)

func (c *Client) RetrieveEvent(ctx context.Context, id string) (*Event, error) {
	if err := requireID(id, "event"); err != nil {
		return nil, err
	}
	var event Event
	err := c.do(ctx, request{
		operation: "events.retrieve",
		method:    http.MethodGet,
		path:      resourcePath("/v1/events", id),
	}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
