package messaging

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

// Noop is a Publisher that only logs what would have been published.
type Noop struct {
	closed atomic.Bool
}

// NewNoop constructs a Noop publisher.
func NewNoop() *Noop {
	return &Noop{}
}

// Publish logs the destination and payload size.
func (n *Noop) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := validate(ctx, destination, msg); err != nil {
		return PublishResult{}, err
	}
	if n.closed.Load() {
		return PublishResult{}, ErrClosed
	}

	slog.DebugContext(ctx, "messaging publish skipped", "destination", destination, "bytes", len(msg.Body))

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Close marks the publisher closed.
func (n *Noop) Close() error {
	n.closed.Store(true)
	return nil
}
