package commands_test

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CompareAndSetStatus(
	ctx context.Context,
	id kernel.OrderID,
	expected order.Status,
	next order.Status,
	updatedAt time.Time,
) error {
	args := m.Called(ctx, id, expected, next, updatedAt)
	return args.Error(0)
}

func (m *MockOrderRepository) ListActive(ctx context.Context, ref kernel.ChannelRef) ([]*order.Order, error) {
	args := m.Called(ctx, ref)
	if orders, ok := args.Get(0).([]*order.Order); ok {
		return orders, args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	checkout = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	later    = checkout.Add(5 * time.Minute)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func storedOrder(id string, status order.Status) *order.Order {
	o, err := order.RestoreOrder(
		kernel.MustOrderIDFromString(id),
		kernel.OptionalChannelRef("chat-1"),
		status,
		checkout,
		checkout,
	)
	if err != nil {
		panic(err)
	}
	return o
}
