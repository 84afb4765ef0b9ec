// Package lognotify implements the Notifier port by writing each event to a
// structured logger.
package lognotify

import (
	"context"
	"log/slog"

	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that Notifier implements outbound.Notifier
var _ outbound.Notifier = (*Notifier)(nil)

// Notifier logs application events.
type Notifier struct {
	logger *slog.Logger
	level  slog.Level
}

// NewNotifier creates a notifier that logs at info level.
func NewNotifier(logger *slog.Logger) *Notifier {
	return NewNotifierWithLevel(logger, slog.LevelInfo)
}

// NewNotifierWithLevel creates a notifier that logs at the given level.
func NewNotifierWithLevel(logger *slog.Logger, level slog.Level) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger: logger.With("component", "log-notifier"),
		level:  level,
	}
}

// Publish logs the event. It never fails.
func (n *Notifier) Publish(ctx context.Context, event outbound.Event) error {
	key := event.GetApplicationKey()
	attrs := []any{
		"eventId", event.GetID().String(),
		"eventType", string(event.EventType()),
		"jobTitle", key.JobTitle,
		"candidateEmail", key.CandidateEmail,
		"timestamp", event.GetTimestamp(),
	}

	msg := "application event"
	switch e := event.(type) {
	case outbound.StatusChangeEvent:
		msg = "application status changed"
		attrs = append(attrs, "oldStatus", string(e.OldStatus), "newStatus", string(e.NewStatus))
	case outbound.ApplicationCreatedEvent:
		msg = "application created"
		attrs = append(attrs, "status", string(e.Application.Status))
	}

	n.logger.Log(ctx, n.level, msg, attrs...)
	return nil
}

// Close is a no-op.
func (n *Notifier) Close() error {
	return nil
}
