package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// Button is one tappable operator control. Data is echoed back when tapped.
type Button struct {
	Text   string
	Data   string
	Active bool
}

// Controls is the operator-visible card of one order.
type Controls struct {
	OrderID kernel.OrderID
	Text    string
	Buttons []Button
}

// Ack is the short answer shown to the operator after an action.
type Ack struct {
	OK   bool
	Text string
}

// ControlSurface is the operator side of the chat transport.
type ControlSurface interface {
	// PostControls sends a new card to the operator chat and returns its message reference.
	PostControls(ctx context.Context, controls Controls) (messageRef string, err error)

	// RenderControls replaces the card behind messageRef.
	RenderControls(ctx context.Context, messageRef string, controls Controls) error

	// AnswerAction acknowledges the action with a short text.
	AnswerAction(ctx context.Context, actionID string, ack Ack) error
}
