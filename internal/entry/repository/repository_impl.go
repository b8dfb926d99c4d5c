package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/formpay/internal/entry/domain"
	dbutil "github.com/smallbiznis/formpay/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertForm(ctx context.Context, db *gorm.DB, form *domain.Form) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO forms (id, title, currency, notifications, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		form.ID,
		form.Title,
		form.Currency,
		form.Notifications,
		form.CreatedAt,
		form.UpdatedAt,
	).Error
}

func (r *repo) FindFormByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Form, error) {
	var form domain.Form
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, currency, notifications, created_at, updated_at
		 FROM forms WHERE id = ?`,
		id,
	).Scan(&form).Error
	if err != nil {
		return nil, err
	}
	if form.ID == 0 {
		return nil, nil
	}
	return &form, nil
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO entries (id, form_id, feed_id, currency, field_values, transaction_id, transaction_type,
		 payment_status, payment_amount, payment_method, payment_date, is_fulfilled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.FormID,
		entry.FeedID,
		entry.Currency,
		entry.Values,
		entry.TransactionID,
		entry.TransactionType,
		entry.PaymentStatus,
		entry.PaymentAmount,
		entry.PaymentMethod,
		entry.PaymentDate,
		entry.IsFulfilled,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Error
}

func (r *repo) UpdateEntryPayment(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`UPDATE entries SET transaction_id = ?, transaction_type = ?, payment_status = ?, payment_amount = ?,
		 payment_method = ?, payment_date = ?, is_fulfilled = ?, updated_at = ?
		 WHERE id = ?`,
		entry.TransactionID,
		entry.TransactionType,
		entry.PaymentStatus,
		entry.PaymentAmount,
		entry.PaymentMethod,
		entry.PaymentDate,
		entry.IsFulfilled,
		entry.UpdatedAt,
		entry.ID,
	).Error
}

func (r *repo) FindEntryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Entry, error) {
	var entry domain.Entry
	err := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("id = ?", id).
		Limit(1).
		Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) FindEntryByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*domain.Entry, error) {
	var entry domain.Entry
	err := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("transaction_id = ?", transactionID).
		Order("created_at desc, id desc").
		Limit(1).
		Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) UpsertMeta(ctx context.Context, db *gorm.DB, meta *domain.EntryMeta) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value", "updated_at"}),
	}).Create(meta).Error
}

func (r *repo) FindMeta(ctx context.Context, db *gorm.DB, entryID snowflake.ID, key string) (*domain.EntryMeta, error) {
	var meta domain.EntryMeta
	err := db.WithContext(ctx).Raw(
		`SELECT entry_id, meta_key, meta_value, updated_at
		 FROM entry_meta WHERE entry_id = ? AND meta_key = ?`,
		entryID,
		key,
	).Scan(&meta).Error
	if err != nil {
		return nil, err
	}
	if meta.EntryID == 0 {
		return nil, nil
	}
	return &meta, nil
}

func (r *repo) InsertNote(ctx context.Context, db *gorm.DB, note *domain.EntryNote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO entry_notes (id, entry_id, note_type, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		note.ID,
		note.EntryID,
		note.NoteType,
		note.Body,
		note.CreatedAt,
	).Error
}

func (r *repo) ListNotes(ctx context.Context, db *gorm.DB, entryID snowflake.ID) ([]domain.EntryNote, error) {
	var notes []domain.EntryNote
	err := db.WithContext(ctx).Raw(
		`SELECT id, entry_id, note_type, body, created_at
		 FROM entry_notes WHERE entry_id = ?
		 ORDER BY created_at ASC, id ASC`,
		entryID,
	).Scan(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *repo) InsertWebhookEvent(ctx context.Context, db *gorm.DB, event *domain.WebhookEvent) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(event)
	if dbutil.IsDuplicateKeyErr(result.Error) {
		return false, nil
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkWebhookEventProcessed(ctx context.Context, db *gorm.DB, eventID string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET status = ?, processed_at = ? WHERE event_id = ?`,
		domain.WebhookEventProcessed,
		at,
		eventID,
	).Error
}
