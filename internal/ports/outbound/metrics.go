package outbound

import (
	"context"
	"time"

	"github.com/archon-research/recruitment/internal/domain/entity"
)

// MetricsRecorder provides an interface for recording application metrics.
// This allows the application layer to record metrics without depending on
// specific telemetry implementations.
type MetricsRecorder interface {
	// RecordOperation records one store operation with its outcome
	// ("ok", "invalid_argument", "already_exists", "not_found" or "error").
	RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration)

	// RecordStatusChange records an application status transition.
	RecordStatusChange(ctx context.Context, from, to entity.Status)

	// RecordNotification records a notifier delivery attempt.
	RecordNotification(ctx context.Context, eventType EventType, delivered bool)
}
