package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
)

// CreateOrderCommand registers a new order in pending status.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewOrderID(), kernel.OptionalChannelRef(chatID))
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.OrderID
	customerRef *kernel.ChannelRef

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the order id; customerRef may be nil.
func NewCreateOrderCommand(orderID kernel.OrderID, customerRef *kernel.ChannelRef) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomerRef(customerRef),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the identifier of the order to create.
func (c CreateOrderCommand) OrderID() kernel.OrderID {
	return c.orderID
}

// CustomerRef returns the customer's channel, nil when notifications are disabled.
func (c CreateOrderCommand) CustomerRef() *kernel.ChannelRef {
	return c.customerRef
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.OrderID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCustomerRef(ref *kernel.ChannelRef) error {
	if ref == nil {
		return nil
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	c.customerRef = ref
	return nil
}
