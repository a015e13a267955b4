package order

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root of the fulfillment domain. It is created at checkout in
// Pending status, mutated only through ChangeStatus and never deleted.
//
// Order follows these invariants:
//   - Must have a valid order identifier
//   - Status is always a canonical status
//   - Once Delivered or Cancelled no further change is accepted
//   - UpdatedAt is refreshed on every effective status change and never precedes CreatedAt
type Order struct {
	id kernel.OrderID

	// customerRef reaches the customer's chat; nil disables notifications
	customerRef *kernel.ChannelRef

	status    Status
	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewOrder creates an order in Pending status.
//
// Example:
//
//	ref := kernel.OptionalChannelRef("424242")
//	o, err := order.NewOrder(kernel.NewOrderID(), ref, time.Now())
func NewOrder(id kernel.OrderID, customerRef *kernel.ChannelRef, now time.Time) (*Order, error) {
	o := &Order{
		status:        Pending,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerRef(customerRef),
		o.setTimestamps(now, now),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order from persisted state. Used by store adapters only.
func RestoreOrder(
	id kernel.OrderID,
	customerRef *kernel.ChannelRef,
	status Status,
	createdAt time.Time,
	updatedAt time.Time,
) (*Order, error) {
	o := &Order{isConstructed: true}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerRef(customerRef),
		o.setStatus(status),
		o.setTimestamps(createdAt, updatedAt),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// ID returns the order identifier.
func (o *Order) ID() kernel.OrderID {
	return o.id
}

// CustomerRef returns the customer's channel reference, nil when the order has none.
func (o *Order) CustomerRef() *kernel.ChannelRef {
	return o.customerRef
}

// Status returns the current status.
func (o *Order) Status() Status {
	return o.status
}

// CreatedAt returns the checkout time.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns the time of the last effective status change (CreatedAt initially).
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// ChangeStatus applies target following Status.Transition.
// It reports changed == false for a request matching the current status, in which case
// the order is left untouched, UpdatedAt included.
//
// Every effective change stores now as UpdatedAt, even when it does not move past the
// previous value. The only clamp is CreatedAt: a clock reading earlier than checkout
// records the checkout time instead.
func (o *Order) ChangeStatus(target Status, now time.Time) (changed bool, err error) {
	if err = o.Validate(); err != nil {
		return false, err
	}

	next, changed, err := o.status.Transition(target)
	if err != nil || !changed {
		return false, err
	}

	o.status = next
	o.updatedAt = now.UTC()
	if o.updatedAt.Before(o.createdAt) {
		o.updatedAt = o.createdAt
	}
	return true, nil
}

// Clone returns an independent copy, used by stores that keep orders in memory.
func (o *Order) Clone() *Order {
	c := *o
	if o.customerRef != nil {
		ref := *o.customerRef
		c.customerRef = &ref
	}
	return &c
}

func (o *Order) setID(id kernel.OrderID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerRef(ref *kernel.ChannelRef) error {
	if ref == nil {
		return nil
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	copied := *ref
	o.customerRef = &copied
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setTimestamps(createdAt, updatedAt time.Time) error {
	if createdAt.IsZero() {
		return errs.NewValueIsRequiredError("created at")
	}
	if updatedAt.Before(createdAt) {
		return errs.NewValueIsInvalidError("updated at precedes created at")
	}
	o.createdAt = createdAt.UTC()
	o.updatedAt = updatedAt.UTC()
	return nil
}
