// Package localbus implements the event transport port in-process.
// Delivery is synchronous: handlers run inline with the publish call, in
// emission order, on the publisher's goroutine.
package localbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/neurahub/dispatch/internal/port/eventbus"
)

// Bus is a single-process publish/subscribe primitive for single-instance
// deployments.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]eventbus.Handler
}

// New creates an empty in-process bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]eventbus.Handler)}
}

// Publish delivers the event to every registered handler, inline.
// A panicking handler is recovered and logged; it never reaches the
// publisher and never blocks delivery to the remaining handlers.
// Publish itself cannot fail.
func (b *Bus) Publish(ctx context.Context, eventType string, data []byte) error {
	b.mu.RLock()
	handlers := b.subs[eventType]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, eventType, data, h)
	}
	return nil
}

func (b *Bus) deliver(ctx context.Context, eventType string, data []byte, h eventbus.Handler) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "event_type", eventType, "panic", r)
		}
	}()
	h(ctx, eventType, data)
}

// Subscribe registers a handler for the event type.
func (b *Bus) Subscribe(eventType string, h eventbus.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[eventType] = append(b.subs[eventType], h)
	return nil
}

// Close is a no-op for the in-process bus.
func (b *Bus) Close() error { return nil }
