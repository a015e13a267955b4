// Package notifications pushes human-readable status updates to customers after a
// transition has been persisted. Delivery is best effort: failures are logged and
// counted, never returned to the code path that changed the order.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/metrics"
)

// DefaultTimeout bounds a single send attempt when none is configured.
const DefaultTimeout = 5 * time.Second

// ErrNotificationFailed wraps every failed send attempt.
var ErrNotificationFailed = errors.New("customer notification failed")

// Dispatcher sends at most one message per call and never retries.
//
// Example:
//
//	d := notifications.NewDispatcher(bot, 5*time.Second, logger)
//	d.Dispatch(ctx, o.CustomerRef(), o.ID(), o.Status()) // returns immediately
//	...
//	d.Wait() // on shutdown
type Dispatcher struct {
	channel ports.CustomerChannel
	timeout time.Duration
	logger  *slog.Logger

	inflight sync.WaitGroup
}

// NewDispatcher creates a dispatcher sending through channel. A non-positive timeout
// falls back to DefaultTimeout.
//
// Example:
//
//	dispatcher := notifications.NewDispatcher(botClient, 5*time.Second, logger)
//	dispatcher.Dispatch(ctx, o.CustomerRef(), o.ID(), o.Status())
//	...
//	dispatcher.Wait() // on shutdown
func NewDispatcher(channel ports.CustomerChannel, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		channel: channel,
		timeout: timeout,
		logger:  logger.With("component", "notification_dispatcher"),
	}
}

// Dispatch notifies in the background and returns immediately. The send is detached
// from ctx cancellation, so an acknowledged operator request does not abort it, but
// keeps ctx values for log correlation.
func (d *Dispatcher) Dispatch(ctx context.Context, ref *kernel.ChannelRef, id kernel.OrderID, status order.Status) {
	detached := context.WithoutCancel(ctx)

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		if err := d.Notify(detached, ref, id, status); err != nil {
			d.logger.WarnContext(detached, "Customer notification dropped",
				"order_id", id.String(),
				"status", status.String(),
				"error", err,
			)
		}
	}()
}

// Notify sends synchronously within the dispatcher timeout. Orders without a customer
// channel and statuses without a message are skipped and return nil.
func (d *Dispatcher) Notify(ctx context.Context, ref *kernel.ChannelRef, id kernel.OrderID, status order.Status) error {
	if ref == nil {
		metrics.RecordNotification(metrics.NotificationSkipped)
		d.logger.DebugContext(ctx, "Order has no customer channel", "order_id", id.String())
		return nil
	}

	text, ok := StatusMessage(id, status)
	if !ok {
		metrics.RecordNotification(metrics.NotificationSkipped)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.channel.SendText(ctx, *ref, text); err != nil {
		metrics.RecordNotification(metrics.NotificationFailed)
		return fmt.Errorf("%w: order %s (%s): %w", ErrNotificationFailed, id, status, err)
	}

	metrics.RecordNotification(metrics.NotificationSent)
	d.logger.DebugContext(ctx, "Customer notified", "order_id", id.String(), "status", status.String())
	return nil
}

// Wait blocks until every notification started by Dispatch has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// StatusMessage returns the customer-facing text for status. ok is false for
// statuses customers are not notified about.
func StatusMessage(id kernel.OrderID, status order.Status) (text string, ok bool) {
	format, ok := statusMessages()[status]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(format, id), true
}

func statusMessages() map[order.Status]string {
	return map[order.Status]string{
		order.Confirmed:  "Your order %s has been accepted.",
		order.Preparing:  "Your order %s is being prepared.",
		order.Delivering: "Your order %s is on its way.",
		order.Delivered:  "Your order %s has been delivered. Enjoy your meal!",
		order.Cancelled:  "Your order %s has been cancelled.",
	}
}
