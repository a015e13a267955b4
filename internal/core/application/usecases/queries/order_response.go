package queries

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderResponse is the read model of an order.
type OrderResponse struct {
	ID          kernel.OrderID
	CustomerRef string
	Status      order.Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderResponse renders o as it is stored; an absent customer reference is empty.
func NewOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:        o.ID(),
		Status:    o.Status(),
		CreatedAt: o.CreatedAt(),
		UpdatedAt: o.UpdatedAt(),
	}
	if ref := o.CustomerRef(); ref != nil {
		resp.CustomerRef = ref.String()
	}
	return resp
}
