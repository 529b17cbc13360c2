// Package natsbus implements the event transport port on NATS JetStream for
// multi-instance deployments.
package natsbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/neurahub/dispatch/internal/port/eventbus"
)

const streamName = "DISPATCH"

// Bus publishes events to JetStream. The event type is used directly as the
// subject, so "chat.message.received" lands on a matching consumer filter.
type Bus struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the event stream exists.
func Connect(ctx context.Context, url string) (*Bus, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"chat.>", "automation.>", "lead.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Bus{nc: nc, js: js}, nil
}

// Publish sends the encoded event to the subject named after its type.
func (b *Bus) Publish(ctx context.Context, eventType string, data []byte) error {
	_, err := b.js.Publish(ctx, eventType, data)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", eventType, err)
	}
	return nil
}

// Subscribe is a documented no-op on this transport. Consuming events across
// instances requires a dedicated consumer process, which this service does not
// ship; deployments that need in-process listeners must run the local bus.
func (b *Bus) Subscribe(eventType string, _ eventbus.Handler) error {
	slog.Warn("natsbus: subscription requires an external consumer process, handler not registered",
		"event_type", eventType)
	return nil
}

// Close shuts down the NATS connection.
func (b *Bus) Close() error {
	b.nc.Close()
	return nil
}

// IsConnected reports whether the underlying NATS connection is up.
func (b *Bus) IsConnected() bool { return b.nc != nil && b.nc.IsConnected() }
