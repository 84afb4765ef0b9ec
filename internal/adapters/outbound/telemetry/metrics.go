package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/archon-research/recruitment/internal/domain/entity"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that Metrics implements outbound.MetricsRecorder
var _ outbound.MetricsRecorder = (*Metrics)(nil)

// MeterName is the instrumentation scope of the recruitment metrics.
const MeterName = "github.com/archon-research/recruitment"

// Metrics implements the MetricsRecorder interface using OpenTelemetry.
type Metrics struct {
	operationLatency metric.Float64Histogram
	operations       metric.Int64Counter
	statusChanges    metric.Int64Counter
	notifications    metric.Int64Counter
}

// NewMetrics creates a new OpenTelemetry metrics recorder.
// A nil provider uses the global meter provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(MeterName)

	latency, err := meter.Float64Histogram(
		"recruitment_operation_duration_seconds",
		metric.WithDescription("Time taken by a store operation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recruitment_operation_duration_seconds histogram: %w", err)
	}

	operations, err := meter.Int64Counter(
		"recruitment_operations_total",
		metric.WithDescription("Total number of store operations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recruitment_operations_total counter: %w", err)
	}

	statusChanges, err := meter.Int64Counter(
		"recruitment_status_changes_total",
		metric.WithDescription("Total number of application status transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recruitment_status_changes_total counter: %w", err)
	}

	notifications, err := meter.Int64Counter(
		"recruitment_notifications_total",
		metric.WithDescription("Total number of notification attempts by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recruitment_notifications_total counter: %w", err)
	}

	return &Metrics{
		operationLatency: latency,
		operations:       operations,
		statusChanges:    statusChanges,
		notifications:    notifications,
	}, nil
}

// RecordOperation records the duration and outcome of a store operation.
func (m *Metrics) RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.operationLatency.Record(ctx, duration.Seconds(), attrs)
	m.operations.Add(ctx, 1, attrs)
}

// RecordStatusChange increments the status transition counter.
func (m *Metrics) RecordStatusChange(ctx context.Context, from, to entity.Status) {
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	))
}

// RecordNotification increments the notification counter.
func (m *Metrics) RecordNotification(ctx context.Context, eventType outbound.EventType, delivered bool) {
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", string(eventType)),
		attribute.String("result", result),
	))
}
