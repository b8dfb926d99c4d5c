package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, feed Feed) (Feed, error)
	Update(ctx context.Context, feed Feed) (Feed, error)
	Get(ctx context.Context, id snowflake.ID) (Feed, error)
	ActiveForForm(ctx context.Context, formID snowflake.ID) (Feed, error)
}

var (
	ErrNotFound     = errors.New("feed_not_found")
	ErrInvalidID    = errors.New("invalid_feed_id")
	ErrNoActiveFeed = errors.New("no_active_feed")
)
