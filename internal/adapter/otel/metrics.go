// Package otel provides OpenTelemetry metric instruments for the dispatcher.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "dispatch"

// Metrics holds all dispatcher metric instruments.
//
// EventsDropped counts events lost to transport failures. Emit swallows
// those failures, so this counter is the only place the loss shows up.
type Metrics struct {
	EventsEmitted       metric.Int64Counter
	EventsDropped       metric.Int64Counter
	DispatchesMock      metric.Int64Counter
	DispatchesCompleted metric.Int64Counter
	DispatchesFailed    metric.Int64Counter
	DispatchDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.EventsEmitted, err = meter.Int64Counter("dispatch.events.emitted",
		metric.WithDescription("Number of events emitted to the bus"))
	if err != nil {
		return nil, err
	}

	m.EventsDropped, err = meter.Int64Counter("dispatch.events.dropped",
		metric.WithDescription("Number of events lost to transport failures"))
	if err != nil {
		return nil, err
	}

	m.DispatchesMock, err = meter.Int64Counter("dispatch.executions.mock",
		metric.WithDescription("Number of mock-mode agent executions"))
	if err != nil {
		return nil, err
	}

	m.DispatchesCompleted, err = meter.Int64Counter("dispatch.executions.completed",
		metric.WithDescription("Number of completed real agent executions"))
	if err != nil {
		return nil, err
	}

	m.DispatchesFailed, err = meter.Int64Counter("dispatch.executions.failed",
		metric.WithDescription("Number of failed real agent executions"))
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram("dispatch.execution.duration_seconds",
		metric.WithDescription("Real execution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
