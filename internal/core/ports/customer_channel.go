package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// CustomerChannel pushes a text message to a customer's chat.
// Implementations should honour ctx cancellation; delivery is best effort.
type CustomerChannel interface {
	SendText(ctx context.Context, to kernel.ChannelRef, text string) error
}
