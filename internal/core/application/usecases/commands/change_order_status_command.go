package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrChangeOrderStatusCommandIsNotConstructed = errors.New(
		"ChangeOrderStatusCommand must be created via NewChangeOrderStatusCommand constructor",
	)
)

// ChangeOrderStatusCommand is a transition request: move orderID to status on behalf of requestedBy.
// It is ephemeral and never persisted.
//
// Example:
//
//	cmd, err := NewChangeOrderStatusCommand(orderID, order.Confirmed, "operator:alice")
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Handle(ctx, cmd)
type ChangeOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.OrderID
	status      order.Status
	requestedBy string

	guard guard.ConstructorGuard
}

// NewChangeOrderStatusCommand validates that the order id and status are well formed.
// Whether the transition is allowed is decided by the handler against the stored status.
//
// Parameters:
//   - orderID: the order to move; must come from kernel.OrderIDFromString or NewOrderID
//   - status: any known status, terminal ones included
//   - requestedBy: who asked, such as "operator:alice"; blank values are rejected
//
// Returns:
//   - ChangeOrderStatusCommand: a validated command ready for the handler
//   - error: every invalid argument joined, wrapping errs.ErrValueIsInvalid or errs.ErrValueIsRequired
func NewChangeOrderStatusCommand(
	orderID kernel.OrderID,
	status order.Status,
	requestedBy string,
) (ChangeOrderStatusCommand, error) {
	cmd := ChangeOrderStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setStatus(status),
		cmd.setRequestedBy(requestedBy),
	); err != nil {
		return ChangeOrderStatusCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ChangeOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrChangeOrderStatusCommandIsNotConstructed)
}

// OrderID returns the order to transition.
func (c ChangeOrderStatusCommand) OrderID() kernel.OrderID {
	return c.orderID
}

// Status returns the requested status.
func (c ChangeOrderStatusCommand) Status() order.Status {
	return c.status
}

// RequestedBy identifies who asked for the change, for logs.
func (c ChangeOrderStatusCommand) RequestedBy() string {
	return c.requestedBy
}

func (c *ChangeOrderStatusCommand) setOrderID(orderID kernel.OrderID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *ChangeOrderStatusCommand) setStatus(status order.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	c.status = status
	return nil
}

func (c *ChangeOrderStatusCommand) setRequestedBy(requestedBy string) error {
	requestedBy = strings.TrimSpace(requestedBy)
	if requestedBy == "" {
		return errs.NewValueIsRequiredError("requested by")
	}
	c.requestedBy = requestedBy
	return nil
}
