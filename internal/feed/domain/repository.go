package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, feed *FeedRecord) error
	Update(ctx context.Context, db *gorm.DB, feed *FeedRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeedRecord, error)
	FindActiveByFormID(ctx context.Context, db *gorm.DB, formID snowflake.ID) (*FeedRecord, error)
}
