package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that FanoutNotifier implements outbound.Notifier
var _ outbound.Notifier = (*FanoutNotifier)(nil)

// FanoutNotifier delivers every event to each of its notifiers in order.
// A failing notifier does not stop delivery to the others.
type FanoutNotifier struct {
	notifiers []outbound.Notifier
}

// NewFanoutNotifier combines notifiers. Nil entries are skipped.
func NewFanoutNotifier(notifiers ...outbound.Notifier) *FanoutNotifier {
	f := &FanoutNotifier{}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

// Len returns the number of combined notifiers.
func (f *FanoutNotifier) Len() int {
	return len(f.notifiers)
}

// Publish delivers the event to every notifier and joins their failures.
func (f *FanoutNotifier) Publish(ctx context.Context, event outbound.Event) error {
	var errs []error
	for i, n := range f.notifiers {
		if err := n.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every notifier and joins their failures.
func (f *FanoutNotifier) Close() error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
