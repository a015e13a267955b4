package queries

import (
	"context"

	"fulfillment/internal/core/ports"
)

// GetActiveOrdersQueryHandler lists active orders, most recently created first.
// A customer without active orders gets an empty, non-nil slice.
type GetActiveOrdersQueryHandler struct {
	repo ports.OrderRepository
}

// NewGetActiveOrdersQueryHandler creates a handler reading from repo.
func NewGetActiveOrdersQueryHandler(repo ports.OrderRepository) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{repo: repo}
}

// Handle executes the query.
func (h GetActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersQuery,
) ([]OrderResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders, err := h.repo.ListActive(ctx, query.CustomerRef())
	if err != nil {
		return nil, err
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, NewOrderResponse(o))
	}
	return resp, nil
}
