// Package otel provides OpenTelemetry setup for the dispatcher.
package otel

import (
	"context"
	"log/slog"
)

// ShutdownFunc flushes and shuts down the meter provider.
type ShutdownFunc func(ctx context.Context) error

// InitMeter returns a no-op shutdown function. The global meter provider is
// used as-is; deployments that export metrics configure an OTLP reader via
// the collector sidecar.
func InitMeter(serviceName string) ShutdownFunc {
	slog.Info("otel meter initialized", "service", serviceName)
	return func(_ context.Context) error { return nil }
}
