// Package memory provides a process-local Order Store. It satisfies the same
// contract as the SQL backends and is selected with STORE_BACKEND=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// OrderRepository keeps orders in a map guarded by a RWMutex. Stored orders are
// cloned on the way in and out so callers never share state with the store.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

// NewOrderRepository creates an empty store.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*order.Order)}
}

// Add stores a new order.
func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errs.NewStoreUnavailableError("add order", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := aggregate.ID().String()
	if _, ok := r.orders[key]; ok {
		return errs.NewObjectAlreadyExistsError("order", key)
	}
	r.orders[key] = aggregate.Clone()
	return nil
}

// Get returns a copy of the stored order.
func (r *OrderRepository) Get(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStoreUnavailableError("get order", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.orders[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return stored.Clone(), nil
}

// CompareAndSetStatus swaps status and updated_at under the write lock.
func (r *OrderRepository) CompareAndSetStatus(
	ctx context.Context,
	id kernel.OrderID,
	expected order.Status,
	next order.Status,
	updatedAt time.Time,
) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStoreUnavailableError("compare and set status", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id.String()]
	if !ok {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	if stored.Status() != expected {
		return errs.NewVersionIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("expected %s, found %s", expected, stored.Status()),
		)
	}

	replaced, err := order.RestoreOrder(stored.ID(), stored.CustomerRef(), next, stored.CreatedAt(), updatedAt)
	if err != nil {
		return err
	}
	r.orders[id.String()] = replaced
	return nil
}

// ListActive returns the customer's non-terminal orders, newest first.
func (r *OrderRepository) ListActive(ctx context.Context, customerRef kernel.ChannelRef) ([]*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStoreUnavailableError("list active orders", err)
	}

	r.mu.RLock()
	active := make([]*order.Order, 0)
	for _, stored := range r.orders {
		ref := stored.CustomerRef()
		if ref == nil || !ref.IsEqual(customerRef) || stored.Status().IsTerminal() {
			continue
		}
		active = append(active, stored.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(active, func(i, j int) bool {
		if !active[i].CreatedAt().Equal(active[j].CreatedAt()) {
			return active[i].CreatedAt().After(active[j].CreatedAt())
		}
		return active[i].ID().String() > active[j].ID().String()
	})

	return active, nil
}
