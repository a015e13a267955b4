package http

import (
	"time"

	"fulfillment/internal/core/application/usecases/queries"

	validation "github.com/jellydator/validation"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CreateOrderRequest is the body of POST /api/v1/orders. OrderID is generated when empty.
type CreateOrderRequest struct {
	OrderID     string `json:"order_id"`
	CustomerRef string `json:"customer_ref"`
}

// Validate checks field lengths; identifier syntax is checked by the domain.
func (r *CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OrderID,
			validation.Length(0, 64).Error("order_id must be at most 64 characters"),
		),
		validation.Field(&r.CustomerRef,
			validation.Length(0, 128).Error("customer_ref must be at most 128 characters"),
		),
	)
}

// OperatorActionRequest is the body of POST /api/v1/operator/actions, posted by the
// chat bridge whenever the operator taps a control.
type OperatorActionRequest struct {
	ActionID   string `json:"action_id"`
	MessageRef string `json:"message_ref"`
	Data       string `json:"data"`
	Operator   string `json:"operator"`
}

// Validate requires the button payload.
func (r *OperatorActionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Data,
			validation.Required.Error("data is required"),
			validation.Length(3, 128).Error("data must be between 3 and 128 characters"),
		),
		validation.Field(&r.ActionID,
			validation.Length(0, 256).Error("action_id must be at most 256 characters"),
		),
	)
}

// OperatorActionResponse mirrors the answer shown to the operator.
type OperatorActionResponse struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// OrderResponse is the JSON shape of an order.
type OrderResponse struct {
	OrderID     string    `json:"order_id"`
	CustomerRef string    `json:"customer_ref,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toOrderResponse(o queries.OrderResponse) OrderResponse {
	return OrderResponse{
		OrderID:     o.ID.String(),
		CustomerRef: o.CustomerRef,
		Status:      o.Status.String(),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
