package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	entrydomain "github.com/smallbiznis/formpay/internal/entry/domain"
	"github.com/smallbiznis/formpay/internal/gateway/stripe"
	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func ret[T any](args mock.Arguments) (*T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *mockGateway) CreateCharge(ctx context.Context, params stripe.ChargeParams) (*stripe.Charge, error) {
	return ret[stripe.Charge](m.Called(ctx, params))
}

func (m *mockGateway) RetrieveCharge(ctx context.Context, id string) (*stripe.Charge, error) {
	return ret[stripe.Charge](m.Called(ctx, id))
}

func (m *mockGateway) UpdateCharge(ctx context.Context, id string, params stripe.ChargeUpdateParams) (*stripe.Charge, error) {
	return ret[stripe.Charge](m.Called(ctx, id, params))
}

func (m *mockGateway) CaptureCharge(ctx context.Context, id string) (*stripe.Charge, error) {
	return ret[stripe.Charge](m.Called(ctx, id))
}

func (m *mockGateway) CreateCustomer(ctx context.Context, params stripe.CustomerParams) (*stripe.Customer, error) {
	return ret[stripe.Customer](m.Called(ctx, params))
}

func (m *mockGateway) RetrieveCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	return ret[stripe.Customer](m.Called(ctx, id))
}

func (m *mockGateway) UpdateCustomer(ctx context.Context, id string, params stripe.CustomerUpdateParams) (*stripe.Customer, error) {
	return ret[stripe.Customer](m.Called(ctx, id, params))
}

func (m *mockGateway) CreatePlan(ctx context.Context, params stripe.PlanParams) (*stripe.Plan, error) {
	return ret[stripe.Plan](m.Called(ctx, params))
}

func (m *mockGateway) RetrievePlan(ctx context.Context, id string) (*stripe.Plan, error) {
	return ret[stripe.Plan](m.Called(ctx, id))
}

func (m *mockGateway) CreateSubscription(ctx context.Context, params stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return ret[stripe.Subscription](m.Called(ctx, params))
}

func (m *mockGateway) ListSubscriptions(ctx context.Context, params stripe.SubscriptionListParams) (*stripe.List[stripe.Subscription], error) {
	return ret[stripe.List[stripe.Subscription]](m.Called(ctx, params))
}

func (m *mockGateway) CancelSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	return ret[stripe.Subscription](m.Called(ctx, id))
}

func (m *mockGateway) CancelSubscriptionAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error) {
	return ret[stripe.Subscription](m.Called(ctx, id))
}

func (m *mockGateway) CreateInvoiceItem(ctx context.Context, params stripe.InvoiceItemParams) (*stripe.InvoiceItem, error) {
	return ret[stripe.InvoiceItem](m.Called(ctx, params))
}

func (m *mockGateway) RetrieveEvent(ctx context.Context, id string) (*stripe.Event, error) {
	return ret[stripe.Event](m.Called(ctx, id))
}

func (m *mockGateway) RetrieveCoupon(ctx context.Context, id string) (*stripe.Coupon, error) {
	return ret[stripe.Coupon](m.Called(ctx, id))
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return ret[stripe.CheckoutSession](m.Called(ctx, params))
}

func (m *mockGateway) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return ret[stripe.PaymentIntent](m.Called(ctx, id))
}

type memoryEntries struct {
	meta map[snowflake.ID]map[string]string
}

func newMemoryEntries() *memoryEntries {
	return &memoryEntries{meta: map[snowflake.ID]map[string]string{}}
}

func (m *memoryEntries) FindByTransactionID(context.Context, string) (*entrydomain.Entry, error) {
	return nil, nil
}

func (m *memoryEntries) GetMeta(_ context.Context, entryID snowflake.ID, key string) (string, error) {
	return m.meta[entryID][key], nil
}

func (m *memoryEntries) SetMeta(_ context.Context, entryID snowflake.ID, key, value string) error {
	if m.meta[entryID] == nil {
		m.meta[entryID] = map[string]string{}
	}
	m.meta[entryID][key] = value
	return nil
}
