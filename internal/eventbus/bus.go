// Package eventbus is the process-wide publish/subscribe facade decoupling
// event producers from consumers.
package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/neurahub/dispatch/internal/adapter/otel"
	"github.com/neurahub/dispatch/internal/domain/event"
	"github.com/neurahub/dispatch/internal/port/eventbus"
)

// logPreviewBytes limits how much of an event payload lands in debug logs.
const logPreviewBytes = 120

// Bus wraps a transport with the typed event contract. Emission is
// fire-and-forget: the publisher never observes delivery outcome.
type Bus struct {
	transport eventbus.Transport
	metrics   *otel.Metrics
}

// New creates a Bus over the given transport. metrics may be nil.
func New(transport eventbus.Transport, metrics *otel.Metrics) *Bus {
	return &Bus{transport: transport, metrics: metrics}
}

// Emit publishes a typed event and always acknowledges, regardless of
// transport or subscriber failure. A failed publish is logged and counted on
// the dropped-events metric so operators can detect silent loss.
func (b *Bus) Emit(ctx context.Context, p event.Payload) bool {
	eventType := string(p.EventType())

	data, err := json.Marshal(p)
	if err != nil {
		slog.Error("event encode failed", "event_type", eventType, "error", err)
		b.countDropped(ctx)
		return true
	}

	slog.Debug("emitting event", "event_type", eventType, "payload", preview(data))

	if b.metrics != nil {
		b.metrics.EventsEmitted.Add(ctx, 1)
	}

	if err := b.transport.Publish(ctx, eventType, data); err != nil {
		slog.Error("event emission failed", "event_type", eventType, "error", err)
		b.countDropped(ctx)
	}
	return true
}

// On registers a handler for every future delivery of the event type.
// Under the NATS transport registration is inert; see natsbus.Subscribe.
func (b *Bus) On(t event.Type, h eventbus.Handler) error {
	slog.Info("event listener registered", "event_type", t)
	return b.transport.Subscribe(string(t), h)
}

// Close releases the underlying transport.
func (b *Bus) Close() error { return b.transport.Close() }

func (b *Bus) countDropped(ctx context.Context) {
	if b.metrics != nil {
		b.metrics.EventsDropped.Add(ctx, 1)
	}
}

// preview truncates payload bytes for log output; chat messages can be long.
func preview(data []byte) string {
	if len(data) <= logPreviewBytes {
		return string(data)
	}
	return string(data[:logPreviewBytes]) + "..."
}
