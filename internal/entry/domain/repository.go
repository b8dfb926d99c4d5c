package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertForm(ctx context.Context, db *gorm.DB, form *Form) error
	FindFormByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Form, error)

	InsertEntry(ctx context.Context, db *gorm.DB, entry *Entry) error
	UpdateEntryPayment(ctx context.Context, db *gorm.DB, entry *Entry) error
	FindEntryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Entry, error)
	FindEntryByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*Entry, error)

	UpsertMeta(ctx context.Context, db *gorm.DB, meta *EntryMeta) error
	FindMeta(ctx context.Context, db *gorm.DB, entryID snowflake.ID, key string) (*EntryMeta, error)

	InsertNote(ctx context.Context, db *gorm.DB, note *EntryNote) error
	ListNotes(ctx context.Context, db *gorm.DB, entryID snowflake.ID) ([]EntryNote, error)

	// InsertWebhookEvent reports false when the event id was already recorded.
	InsertWebhookEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	MarkWebhookEventProcessed(ctx context.Context, db *gorm.DB, eventID string, at time.Time) error
}
