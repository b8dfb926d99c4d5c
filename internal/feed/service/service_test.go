package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/smallbiznis/formpay/internal/feed/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.FeedRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
	})
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Feed{
		FormID:             10,
		Name:               "  Gold  ",
		IsActive:           true,
		TransactionType:    domain.TransactionTypeSubscription,
		PaymentAmountField: domain.PaymentAmountFormTotal,
		BillingCycle:       domain.BillingCycle{Length: 1, Unit: domain.BillingUnitMonth},
		Metadata:           []domain.MetaMapping{{Key: "tier", FieldID: "4"}},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Gold", created.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.BillingCycle, got.BillingCycle)
	assert.Equal(t, created.Metadata, got.Metadata)

	active, err := svc.ActiveForForm(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, created.ID, active.ID)
}

func TestCreateRejectsInvalidFeed(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), domain.Feed{
		FormID:             10,
		Name:               "Yearly",
		TransactionType:    domain.TransactionTypeSubscription,
		PaymentAmountField: "1",
		BillingCycle:       domain.BillingCycle{Length: 2, Unit: domain.BillingUnitYear},
	})
	assert.Error(t, err)
}

func TestGetMissing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ActiveForForm(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNoActiveFeed)
}

func TestUpdateKeepsForm(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Feed{
		FormID:             11,
		Name:               "Widgets",
		IsActive:           true,
		TransactionType:    domain.TransactionTypeProduct,
		PaymentAmountField: domain.PaymentAmountFormTotal,
	})
	require.NoError(t, err)

	created.FormID = 99
	created.IsActive = false
	updated, err := svc.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(11), updated.FormID)

	_, err = svc.ActiveForForm(ctx, 11)
	assert.ErrorIs(t, err, domain.ErrNoActiveFeed)
}
