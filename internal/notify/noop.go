package notify

import (
	"context"
	"log/slog"
)

// NoopPublisher logs events instead of delivering them. Used when the
// realtime feed is disabled.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (n *NoopPublisher) Publish(ctx context.Context, event Event) error {
	n.logger.DebugContext(ctx, "event::"+event.Type,
		"event_id", event.ID,
		"customer_id", event.CustomerID,
	)
	return nil
}
