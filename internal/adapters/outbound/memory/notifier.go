// notifier.go provides an in-memory implementation of Notifier.
//
// Published events are recorded for inspection in tests:
//   - Events(): all published events
//   - EventsByType(): events filtered by type
//   - StatusChanges(): status change events only
//   - OnPublish(): callback for event assertions
//   - FailWith(): make subsequent publishes fail
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// ErrNotifierClosed is returned when publishing to a closed notifier.
var ErrNotifierClosed = errors.New("notifier closed")

// Compile-time check that Notifier implements outbound.Notifier
var _ outbound.Notifier = (*Notifier)(nil)

// Notifier is an in-memory implementation of the Notifier port.
type Notifier struct {
	mu      sync.RWMutex
	events  []outbound.Event
	closed  bool
	failErr error

	onPublish func(outbound.Event)
}

// NewNotifier creates a new in-memory notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		events: make([]outbound.Event, 0),
	}
}

// Publish records the event. It fails if the notifier is closed or a failure
// was configured with FailWith.
func (n *Notifier) Publish(ctx context.Context, event outbound.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNotifierClosed
	}
	if n.failErr != nil {
		return n.failErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n.events = append(n.events, event)

	if n.onPublish != nil {
		n.onPublish(event)
	}
	return nil
}

// Close marks the notifier as closed.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

// Events returns all published events.
func (n *Notifier) Events() []outbound.Event {
	n.mu.RLock()
	defer n.mu.RUnlock()
	result := make([]outbound.Event, len(n.events))
	copy(result, n.events)
	return result
}

// EventsByType returns events filtered by type.
func (n *Notifier) EventsByType(eventType outbound.EventType) []outbound.Event {
	n.mu.RLock()
	defer n.mu.RUnlock()
	result := make([]outbound.Event, 0)
	for _, e := range n.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// StatusChanges returns all status change events.
func (n *Notifier) StatusChanges() []outbound.StatusChangeEvent {
	n.mu.RLock()
	defer n.mu.RUnlock()
	result := make([]outbound.StatusChangeEvent, 0)
	for _, e := range n.events {
		if sc, ok := e.(outbound.StatusChangeEvent); ok {
			result = append(result, sc)
		}
	}
	return result
}

// EventCount returns the number of published events.
func (n *Notifier) EventCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.events)
}

// Clear removes all recorded events.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = make([]outbound.Event, 0)
}

// FailWith makes every subsequent Publish return err. A nil err restores
// normal behaviour.
func (n *Notifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failErr = err
}

// OnPublish sets a callback to be called when an event is published.
func (n *Notifier) OnPublish(fn func(outbound.Event)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onPublish = fn
}
