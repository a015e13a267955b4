// Package ports defines the contracts between the fulfillment core and its infrastructure.
// Store backends, chat transports and clocks are injected through these interfaces, so the
// core never reaches for a process-wide singleton.
package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderRepository is the keyed, durable Order Store and the single source of truth for status.
//
// Error contract, shared by every backend:
//   - errs.ErrObjectNotFound when the order does not exist
//   - errs.ErrObjectAlreadyExists when Add collides with an existing order id
//   - errs.ErrVersionIsInvalid when CompareAndSetStatus finds a status other than expected
//   - errs.ErrStoreUnavailable for transport and driver failures
type OrderRepository interface {
	// Add persists a newly created order.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get returns the current state of an order. Callers must not assume the value
	// is a private copy and should Clone it before mutating.
	Get(ctx context.Context, id kernel.OrderID) (*order.Order, error)

	// CompareAndSetStatus atomically replaces status and updated_at when the stored status
	// still equals expected. Readers observe either the old or the new pair, never a mix.
	CompareAndSetStatus(
		ctx context.Context,
		id kernel.OrderID,
		expected order.Status,
		next order.Status,
		updatedAt time.Time,
	) error

	// ListActive returns the customer's non-terminal orders, most recently created first.
	// Orders created at the same instant are ordered by id descending.
	ListActive(ctx context.Context, customerRef kernel.ChannelRef) ([]*order.Order, error)
}
