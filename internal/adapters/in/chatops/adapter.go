package chatops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/metrics"
	"fulfillment/internal/pkg/errs"
)

// Action is a tap on a control, as delivered by the chat platform. Delivery is at
// least once, so the same action may arrive twice.
type Action struct {
	ID         string
	MessageRef string
	Data       string
	Operator   string
}

// TransitionEngine applies status changes.
type TransitionEngine interface {
	Handle(ctx context.Context, cmd commands.ChangeOrderStatusCommand) (commands.ChangeOrderStatusResult, error)
}

// Notifier pushes status updates to customers without blocking.
type Notifier interface {
	Dispatch(ctx context.Context, ref *kernel.ChannelRef, id kernel.OrderID, status order.Status)
}

// Adapter handles operator actions. It is safe for concurrent use; actions for
// different orders never wait on each other.
type Adapter struct {
	engine   TransitionEngine
	notifier Notifier
	surface  ports.ControlSurface
	logger   *slog.Logger
}

// NewAdapter wires the control channel. engine applies transitions, notifier reaches
// the customer of every applied one, and surface renders the operator cards and answers taps.
func NewAdapter(engine TransitionEngine, notifier Notifier, surface ports.ControlSurface, logger *slog.Logger) *Adapter {
	return &Adapter{
		engine:   engine,
		notifier: notifier,
		surface:  surface,
		logger:   logger.With("component", "operator_control"),
	}
}

// HandleAction applies the action and answers it. The returned Ack is the one sent
// to the operator.
//
// On success the customer notification is started before the action is answered
// and never awaited. On failure the controls are left untouched.
func (a *Adapter) HandleAction(ctx context.Context, action Action) ports.Ack {
	ack := a.apply(ctx, action)

	if err := a.surface.AnswerAction(ctx, action.ID, ack); err != nil {
		a.logger.WarnContext(ctx, "Failed to answer operator action", "action_id", action.ID, "error", err)
	}
	return ack
}

func (a *Adapter) apply(ctx context.Context, action Action) ports.Ack {
	status, id, err := ParseActionData(action.Data)
	if err != nil {
		metrics.RecordOperatorAction(metrics.ActionRejected)
		a.logger.InfoContext(ctx, "Unrecognized operator action", "data", action.Data, "error", err)
		return ports.Ack{Text: "Unknown action."}
	}

	cmd, err := commands.NewChangeOrderStatusCommand(id, status, requester(action.Operator))
	if err != nil {
		metrics.RecordOperatorAction(metrics.ActionRejected)
		return ports.Ack{Text: "Unknown action."}
	}

	result, err := a.engine.Handle(ctx, cmd)
	if err != nil {
		return a.reject(ctx, id, status, err)
	}

	current := result.Order
	if !result.Changed {
		metrics.RecordOperatorAction(metrics.ActionDuplicate)
		a.render(ctx, action.MessageRef, current)
		return ports.Ack{OK: true, Text: fmt.Sprintf("Order %s is already %s.", id, current.Status())}
	}

	metrics.RecordOperatorAction(metrics.ActionApplied)
	a.notifier.Dispatch(ctx, current.CustomerRef(), current.ID(), current.Status())
	a.render(ctx, action.MessageRef, current)

	return ports.Ack{OK: true, Text: fmt.Sprintf("Order %s is now %s.", id, current.Status())}
}

// reject turns an engine error into the operator's answer.
func (a *Adapter) reject(ctx context.Context, id kernel.OrderID, target order.Status, err error) ports.Ack {
	var transitionErr *order.TransitionError

	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		metrics.RecordOperatorAction(metrics.ActionRejected)
		return ports.Ack{Text: fmt.Sprintf("Order %s not found.", id)}

	case errors.Is(err, order.ErrAlreadyTerminal) && errors.As(err, &transitionErr):
		metrics.RecordOperatorAction(metrics.ActionRejected)
		return ports.Ack{Text: fmt.Sprintf("Order %s is already %s.", id, transitionErr.From)}

	case errors.Is(err, order.ErrInvalidTransition) && errors.As(err, &transitionErr):
		metrics.RecordOperatorAction(metrics.ActionRejected)
		return ports.Ack{Text: fmt.Sprintf("Order %s cannot move from %s to %s.", id, transitionErr.From, target)}

	case errors.Is(err, errs.ErrStoreUnavailable), errors.Is(err, errs.ErrVersionIsInvalid):
		metrics.RecordOperatorAction(metrics.ActionFailed)
		a.logger.ErrorContext(ctx, "Order status change failed", "order_id", id.String(), "error", err)
		return ports.Ack{Text: fmt.Sprintf("Order %s was not updated, please try again.", id)}

	default:
		metrics.RecordOperatorAction(metrics.ActionFailed)
		a.logger.ErrorContext(ctx, "Order status change failed", "order_id", id.String(), "error", err)
		return ports.Ack{Text: fmt.Sprintf("Order %s was not updated.", id)}
	}
}

func (a *Adapter) render(ctx context.Context, messageRef string, o *order.Order) {
	if messageRef == "" {
		return
	}
	if err := a.surface.RenderControls(ctx, messageRef, BuildControls(o)); err != nil {
		a.logger.WarnContext(ctx, "Failed to refresh order controls",
			"order_id", o.ID().String(),
			"message_ref", messageRef,
			"error", err,
		)
	}
}

// AnnounceOrder posts the controls of a newly created order to the operator chat.
// Failures are logged; the order exists regardless.
func (a *Adapter) AnnounceOrder(ctx context.Context, o *order.Order) {
	ref, err := a.surface.PostControls(ctx, BuildControls(o))
	if err != nil {
		a.logger.WarnContext(ctx, "Failed to announce order", "order_id", o.ID().String(), "error", err)
		return
	}
	a.logger.DebugContext(ctx, "Order announced", "order_id", o.ID().String(), "message_ref", ref)
}

func requester(operator string) string {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return "operator"
	}
	return "operator:" + operator
}
