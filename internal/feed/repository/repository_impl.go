package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/formpay/internal/feed/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, feed *domain.FeedRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO feeds (id, form_id, name, is_active, transaction_type, settings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		feed.ID,
		feed.FormID,
		feed.Name,
		feed.IsActive,
		feed.TransactionType,
		feed.Settings,
		feed.CreatedAt,
		feed.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, feed *domain.FeedRecord) error {
	return db.WithContext(ctx).Exec(
		`UPDATE feeds SET name = ?, is_active = ?, transaction_type = ?, settings = ?, updated_at = ?
		 WHERE id = ?`,
		feed.Name,
		feed.IsActive,
		feed.TransactionType,
		feed.Settings,
		feed.UpdatedAt,
		feed.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeedRecord, error) {
	var feed domain.FeedRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, form_id, name, is_active, transaction_type, settings, created_at, updated_at
		 FROM feeds WHERE id = ?`,
		id,
	).Scan(&feed).Error
	if err != nil {
		return nil, err
	}
	if feed.ID == 0 {
		return nil, nil
	}
	return &feed, nil
}

func (r *repo) FindActiveByFormID(ctx context.Context, db *gorm.DB, formID snowflake.ID) (*domain.FeedRecord, error) {
	var feed domain.FeedRecord
	err := db.WithContext(ctx).
		Model(&domain.FeedRecord{}).
		Where("form_id = ? AND is_active = ?", formID, true).
		Order("created_at asc, id asc").
		Limit(1).
		Find(&feed).Error
	if err != nil {
		return nil, err
	}
	if feed.ID == 0 {
		return nil, nil
	}
	return &feed, nil
}
