package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// CreateOrderCommandHandler persists new orders in pending status.
type CreateOrderCommandHandler struct {
	repo  ports.OrderRepository
	clock Clock
}

// NewCreateOrderCommandHandler creates a handler writing to repo with timestamps from clock.
func NewCreateOrderCommandHandler(repo ports.OrderRepository, clock Clock) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		repo:  repo,
		clock: clock,
	}
}

// Handle creates the order and returns it as stored.
// A duplicate id fails with errs.ErrObjectAlreadyExists.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	created, err := order.NewOrder(cmd.OrderID(), cmd.CustomerRef(), h.clock())
	if err != nil {
		return nil, err
	}

	if err = h.repo.Add(ctx, created); err != nil {
		return nil, err
	}

	return created, nil
}
