package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionTypeProduct      TransactionType = "product"
	TransactionTypeSubscription TransactionType = "subscription"
)

type BillingUnit string

const (
	BillingUnitDay   BillingUnit = "day"
	BillingUnitWeek  BillingUnit = "week"
	BillingUnitMonth BillingUnit = "month"
	BillingUnitYear  BillingUnit = "year"
)

// PaymentAmountFormTotal maps the payment amount to the sum of all line items.
const PaymentAmountFormTotal = "form_total"

const (
	MaxMetadataEntries   = 20
	MaxMetadataKeyLength = 40
	MaxMetadataValueLen  = 500
)

type BillingCycle struct {
	Length int         `json:"length"`
	Unit   BillingUnit `json:"unit" validate:"omitempty,oneof=day week month year"`
}

type Trial struct {
	Enabled    bool `json:"enabled"`
	PeriodDays int  `json:"period_days" validate:"min=0"`
}

type SetupFee struct {
	Enabled bool   `json:"enabled"`
	Field   string `json:"field"`
}

// CustomerFields maps customer attributes to form field ids.
type CustomerFields struct {
	DescriptionField string `json:"description_field"`
	EmailField       string `json:"email_field"`
	CouponField      string `json:"coupon_field"`
}

type MetaMapping struct {
	Key     string `json:"key" validate:"required,max=40"`
	FieldID string `json:"field_id" validate:"required"`
}

// Feed binds a form to payment processing rules.
type Feed struct {
	ID                 snowflake.ID    `json:"id"`
	FormID             snowflake.ID    `json:"form_id" validate:"required"`
	Name               string          `json:"name" validate:"required,max=120"`
	IsActive           bool            `json:"is_active"`
	TransactionType    TransactionType `json:"transaction_type" validate:"required,oneof=product subscription"`
	PaymentAmountField string          `json:"payment_amount_field" validate:"required"`
	BillingCycle       BillingCycle    `json:"billing_cycle"`
	Trial              Trial           `json:"trial"`
	SetupFee           SetupFee        `json:"setup_fee"`
	ReceiptField       string          `json:"receipt_field"`
	Customer           CustomerFields  `json:"customer"`
	Metadata           []MetaMapping   `json:"metadata" validate:"max=20,dive"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (f *Feed) IsSubscription() bool {
	return f != nil && f.TransactionType == TransactionTypeSubscription
}

// TrialDays returns the trial length when trials are enabled, otherwise zero.
func (f *Feed) TrialDays() int {
	if f == nil || !f.Trial.Enabled || f.Trial.PeriodDays <= 0 {
		return 0
	}
	return f.Trial.PeriodDays
}

// Settings is the JSON-encoded part of a feed row.
type Settings struct {
	PaymentAmountField string         `json:"payment_amount_field"`
	BillingCycle       BillingCycle   `json:"billing_cycle"`
	Trial              Trial          `json:"trial"`
	SetupFee           SetupFee       `json:"setup_fee"`
	ReceiptField       string         `json:"receipt_field"`
	Customer           CustomerFields `json:"customer"`
	Metadata           []MetaMapping  `json:"metadata"`
}

type FeedRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	FormID          snowflake.ID   `gorm:"not null;index"`
	Name            string         `gorm:"type:text;not null"`
	IsActive        bool           `gorm:"not null"`
	TransactionType string         `gorm:"type:text;not null"`
	Settings        datatypes.JSON `gorm:"not null"`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
}

func (FeedRecord) TableName() string { return "feeds" }

// ToRecord encodes the feed for storage.
func (f Feed) ToRecord() (FeedRecord, error) {
	settings, err := json.Marshal(Settings{
		PaymentAmountField: f.PaymentAmountField,
		BillingCycle:       f.BillingCycle,
		Trial:              f.Trial,
		SetupFee:           f.SetupFee,
		ReceiptField:       f.ReceiptField,
		Customer:           f.Customer,
		Metadata:           f.Metadata,
	})
	if err != nil {
		return FeedRecord{}, err
	}
	return FeedRecord{
		ID:              f.ID,
		FormID:          f.FormID,
		Name:            f.Name,
		IsActive:        f.IsActive,
		TransactionType: string(f.TransactionType),
		Settings:        datatypes.JSON(settings),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}, nil
}

// FeedFromRecord decodes a stored feed.
func FeedFromRecord(r FeedRecord) (Feed, error) {
	var settings Settings
	if len(r.Settings) > 0 {
		if err := json.Unmarshal(r.Settings, &settings); err != nil {
			return Feed{}, err
		}
	}
	return Feed{
		ID:                 r.ID,
		FormID:             r.FormID,
		Name:               r.Name,
		IsActive:           r.IsActive,
		TransactionType:    TransactionType(r.TransactionType),
		PaymentAmountField: settings.PaymentAmountField,
		BillingCycle:       settings.BillingCycle,
		Trial:              settings.Trial,
		SetupFee:           settings.SetupFee,
		ReceiptField:       settings.ReceiptField,
		Customer:           settings.Customer,
		Metadata:           settings.Metadata,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}, nil
}
