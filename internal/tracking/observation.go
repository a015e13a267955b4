// Package tracking keeps a customer's view of their current order converged with the
// Order Store. One Session polls on a fixed schedule, surfaces only real changes and
// drops the order from view once it is delivered (after a grace delay) or cancelled.
package tracking

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// Observation is an order as read from the store.
type Observation struct {
	OrderID   kernel.OrderID
	Status    order.Status
	UpdatedAt time.Time
}

// Same reports whether o and other describe the same (order id, status) pair.
func (o Observation) Same(other Observation) bool {
	return o.OrderID.IsEqual(other.OrderID) && o.Status == other.Status
}

// Fetcher reads orders for a session. Calls carry their own deadline.
type Fetcher interface {
	// ActiveOrders lists the customer's non-terminal orders, most recently created first.
	ActiveOrders(ctx context.Context, customer kernel.ChannelRef) ([]Observation, error)

	// Order reads one order by id. A missing order fails with errs.ErrObjectNotFound.
	Order(ctx context.Context, id kernel.OrderID) (Observation, error)
}

// View receives what the customer should see. Calls are serialized per session and
// made while the session is locked, so a View must not call back into its Session.
type View interface {
	// Show surfaces a changed (order id, status) pair.
	Show(obs Observation)

	// Clear drops the tracked order from view.
	Clear()
}
