package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/formpay/internal/config"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DemoFormTitle   = "Demo Donation"
	DemoFeedName    = "Demo donation feed"
	DemoAmountField = "1"
	DemoEmailField  = "2"
)

var Module = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, db *gorm.DB, entries entrydomain.Service, feeds feeddomain.Service, log *zap.Logger) {
		if !cfg.SeedDemo {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				form, err := EnsureDemoForm(ctx, db, entries, feeds, cfg.DefaultCurrency)
				if err != nil {
					return fmt.Errorf("seed demo form: %w", err)
				}
				log.Named("seed").Info("demo form ready", zap.String("form_id", form.ID.String()))
				return nil
			},
		})
	}),
)

// EnsureDemoForm creates a donation form with an active product feed unless
// one with the demo title already exists.
func EnsureDemoForm(ctx context.Context, db *gorm.DB, entries entrydomain.Service, feeds feeddomain.Service, currency string) (entrydomain.Form, error) {
	if db == nil {
		return entrydomain.Form{}, errors.New("seed database handle is required")
	}

	var existing entrydomain.Form
	err := db.WithContext(ctx).Where("title = ?", DemoFormTitle).First(&existing).Error
	if err == nil {
		if _, err := feeds.ActiveForForm(ctx, existing.ID); err == nil || !errors.Is(err, feeddomain.ErrNoActiveFeed) {
			return existing, err
		}
		return existing, createDemoFeed(ctx, feeds, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entrydomain.Form{}, err
	}

	form, err := entries.CreateForm(ctx, entrydomain.Form{
		Title:    DemoFormTitle,
		Currency: currency,
	})
	if err != nil {
		return entrydomain.Form{}, err
	}
	return form, createDemoFeed(ctx, feeds, form)
}

func createDemoFeed(ctx context.Context, feeds feeddomain.Service, form entrydomain.Form) error {
	_, err := feeds.Create(ctx, feeddomain.Feed{
		FormID:             form.ID,
		Name:               DemoFeedName,
		IsActive:           true,
		TransactionType:    feeddomain.TransactionTypeProduct,
		PaymentAmountField: DemoAmountField,
		ReceiptField:       DemoEmailField,
		Customer: feeddomain.CustomerFields{
			EmailField: DemoEmailField,
		},
	})
	return err
}
