package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/metrics"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/keylock"
	"fulfillment/internal/pkg/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxCompareAndSetAttempts bounds re-reads after another writer changed the order
// between our read and our compare-and-set. Writers in this process are serialized
// by the key lock, so conflicts only come from other processes sharing the store.
const maxCompareAndSetAttempts = 3

// ChangeOrderStatusResult is the outcome of an accepted request.
type ChangeOrderStatusResult struct {
	// Order is the order as stored after the request.
	Order *order.Order

	// Previous is the status before the request.
	Previous order.Status

	// Changed is false when the requested status was already in effect.
	Changed bool
}

// ChangeOrderStatusCommandHandler is the transition engine and the only writer of order status.
//
// Validation runs in this order:
//  1. the order exists, else errs.ErrObjectNotFound
//  2. the current status is not terminal, else order.ErrAlreadyTerminal
//  3. a request for the current status succeeds without a write
//  4. the request is forward-adjacent or a cancellation, else order.ErrInvalidTransition
//
// Accepted changes are written with a single compare-and-set of status and updated_at.
// Requests for the same order are serialized; different orders never contend.
//
// Example:
//
//	engine := NewChangeOrderStatusCommandHandler(repo, time.Now, logger)
//	result, err := engine.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrObjectNotFound):
//	case errors.Is(err, order.ErrAlreadyTerminal), errors.Is(err, order.ErrInvalidTransition):
//	case errors.Is(err, errs.ErrStoreUnavailable):
//	case err == nil && !result.Changed:
//	    // duplicate request, nothing written
//	}
type ChangeOrderStatusCommandHandler struct {
	repo   ports.OrderRepository
	clock  Clock
	locks  *keylock.KeyLock
	tracer trace.Tracer
	logger *slog.Logger
}

// NewChangeOrderStatusCommandHandler creates the engine. Copies share the same per-order locks.
func NewChangeOrderStatusCommandHandler(
	repo ports.OrderRepository,
	clock Clock,
	logger *slog.Logger,
) ChangeOrderStatusCommandHandler {
	return ChangeOrderStatusCommandHandler{
		repo:   repo,
		clock:  clock,
		locks:  keylock.New(),
		tracer: telemetry.Tracer(),
		logger: logger.With("component", "transition_engine"),
	}
}

// Handle validates and applies the requested transition.
//
// Requests for the same order are serialized in process; across processes the store's
// compare-and-set decides, and a lost race is retried against the fresh status.
//
// Returns:
//   - Changed == true with the updated order when the transition was stored
//   - Changed == false with the current order when it already had the requested status
//   - order.ErrInvalidTransition or order.ErrAlreadyTerminal when the move is not allowed
//   - errs.ErrObjectNotFound for an unknown order
//   - errs.ErrVersionIsInvalid when the order kept changing under every attempt
func (h ChangeOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd ChangeOrderStatusCommand,
) (ChangeOrderStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return ChangeOrderStatusResult{}, err
	}

	ctx, span := h.tracer.Start(ctx, "ChangeOrderStatus", trace.WithAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.String("order.requested_status", cmd.Status().String()),
	))
	defer span.End()

	unlock := h.locks.Lock(cmd.OrderID().String())
	defer unlock()

	result, err := h.apply(ctx, cmd)
	h.record(result, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ChangeOrderStatusResult{}, err
	}

	if result.Changed {
		h.logger.InfoContext(ctx, "Order status changed",
			"order_id", cmd.OrderID().String(),
			"from", result.Previous.String(),
			"to", result.Order.Status().String(),
			"requested_by", cmd.RequestedBy(),
		)
	}

	return result, nil
}

func (h ChangeOrderStatusCommandHandler) apply(
	ctx context.Context,
	cmd ChangeOrderStatusCommand,
) (ChangeOrderStatusResult, error) {
	var lastConflict error

	for range maxCompareAndSetAttempts {
		stored, err := h.repo.Get(ctx, cmd.OrderID())
		if err != nil {
			return ChangeOrderStatusResult{}, err
		}

		// The store's value is left as read until the compare-and-set succeeds.
		current := stored.Clone()

		previous := current.Status()
		changed, err := current.ChangeStatus(cmd.Status(), h.clock())
		if err != nil {
			return ChangeOrderStatusResult{}, err
		}

		if !changed {
			return ChangeOrderStatusResult{Order: current, Previous: previous}, nil
		}

		err = h.repo.CompareAndSetStatus(ctx, current.ID(), previous, current.Status(), current.UpdatedAt())
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			lastConflict = err
			continue
		}
		if err != nil {
			return ChangeOrderStatusResult{}, err
		}

		return ChangeOrderStatusResult{Order: current, Previous: previous, Changed: true}, nil
	}

	return ChangeOrderStatusResult{}, fmt.Errorf(
		"order %s kept changing concurrently: %w", cmd.OrderID(), lastConflict,
	)
}

func (h ChangeOrderStatusCommandHandler) record(result ChangeOrderStatusResult, err error) {
	switch {
	case err == nil && result.Changed:
		metrics.RecordTransition(metrics.TransitionApplied)
	case err == nil:
		metrics.RecordTransition(metrics.TransitionNoop)
	case errors.Is(err, errs.ErrObjectNotFound):
		metrics.RecordTransition(metrics.TransitionNotFound)
	case errors.Is(err, order.ErrAlreadyTerminal), errors.Is(err, order.ErrInvalidTransition):
		metrics.RecordTransition(metrics.TransitionRejected)
	case errors.Is(err, errs.ErrVersionIsInvalid):
		metrics.RecordTransition(metrics.TransitionConflict)
	default:
		metrics.RecordTransition(metrics.TransitionError)
	}
}
