// Package eventbus defines the event transport port (interface).
package eventbus

import "context"

// Handler processes a delivered event. Handlers must not assume they run on
// any particular goroutine; the in-process transport invokes them inline with
// the publish call.
type Handler func(ctx context.Context, eventType string, data []byte)

// Transport is the port interface for publishing and subscribing to events.
// Implementations: localbus (single process, synchronous delivery) and
// natsbus (JetStream, multi-instance).
type Transport interface {
	// Publish sends an encoded event. Delivery is at-most-once.
	Publish(ctx context.Context, eventType string, data []byte) error

	// Subscribe registers a handler for every future delivery of eventType.
	// Multiple handlers per type are supported; their relative order is
	// unspecified.
	Subscribe(eventType string, h Handler) error

	// Close releases transport resources.
	Close() error
}
