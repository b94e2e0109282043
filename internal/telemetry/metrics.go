package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Operation result labels recorded on adapter metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// AdapterMetrics instruments wallet adapter operations.
type AdapterMetrics struct {
	operationCounter  metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorCounter      metric.Int64Counter
	readyStateCounter metric.Int64Counter
}

// NewAdapterMetrics builds adapter instruments on the global meter provider.
// Instruments degrade to no-ops when telemetry is disabled.
func NewAdapterMetrics() *AdapterMetrics {
	meter := otel.Meter("walletgate/adapter")
	m := new(AdapterMetrics)
	m.operationCounter, _ = meter.Int64Counter("wallet.adapter.operations",
		metric.WithDescription("Number of adapter operations by result"),
		metric.WithUnit("{operation}"))
	m.operationDuration, _ = meter.Float64Histogram("wallet.adapter.operation.duration",
		metric.WithDescription("Latency of adapter operations"),
		metric.WithUnit("ms"))
	m.errorCounter, _ = meter.Int64Counter("wallet.adapter.errors",
		metric.WithDescription("Number of surfaced adapter errors by code"),
		metric.WithUnit("{error}"))
	m.readyStateCounter, _ = meter.Int64Counter("wallet.adapter.ready_state.transitions",
		metric.WithDescription("Number of ready-state transitions observed"),
		metric.WithUnit("{transition}"))
	return m
}

// RecordOperation records an operation outcome and its duration.
func (m *AdapterMetrics) RecordOperation(ctx context.Context, wallet, op, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("wallet", wallet),
		attribute.String("operation", op),
		attribute.String("result", result),
	)
	if m.operationCounter != nil {
		m.operationCounter.Add(ctx, 1, attrs)
	}
	if m.operationDuration != nil {
		m.operationDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}
}

// RecordError counts a surfaced error by taxonomy code.
func (m *AdapterMetrics) RecordError(ctx context.Context, wallet, code string) {
	if m == nil || m.errorCounter == nil {
		return
	}
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("wallet", wallet),
		attribute.String("code", code),
	))
}

// RecordReadyState counts a ready-state transition.
func (m *AdapterMetrics) RecordReadyState(ctx context.Context, wallet, state string) {
	if m == nil || m.readyStateCounter == nil {
		return
	}
	m.readyStateCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("wallet", wallet),
		attribute.String("state", state),
	))
}
