package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/archon-research/recruitment/internal/domain/entity"
)

// EventType represents the type of event.
type EventType string

// Event type constants.
const (
	EventTypeStatusChange       EventType = "STATUS_CHANGE"
	EventTypeApplicationCreated EventType = "APPLICATION_CREATED"
	EventTypeApplicationDeleted EventType = "APPLICATION_DELETED"
)

// Event is the interface that all event types implement.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType
	// GetID returns the unique event identifier.
	GetID() uuid.UUID
	// GetApplicationKey returns the identity of the application the event is about.
	GetApplicationKey() entity.ApplicationKey
	// GetTimestamp returns when the event happened.
	GetTimestamp() time.Time
}

// StatusChangeEvent is published after an application's status was replaced.
type StatusChangeEvent struct {
	// ID uniquely identifies this event.
	ID uuid.UUID `json:"id"`

	// Application is the application as stored after the update.
	Application entity.Application `json:"application"`

	// OldStatus is the status before the update.
	OldStatus entity.Status `json:"oldStatus"`

	// NewStatus is the status after the update.
	NewStatus entity.Status `json:"newStatus"`

	// Timestamp is when the update was applied.
	Timestamp time.Time `json:"timestamp"`
}

// NewStatusChangeEvent creates a StatusChangeEvent with a fresh ID.
func NewStatusChangeEvent(app entity.Application, oldStatus, newStatus entity.Status, at time.Time) StatusChangeEvent {
	return StatusChangeEvent{
		ID:          uuid.New(),
		Application: app,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		Timestamp:   at,
	}
}

func (e StatusChangeEvent) EventType() EventType                     { return EventTypeStatusChange }
func (e StatusChangeEvent) GetID() uuid.UUID                         { return e.ID }
func (e StatusChangeEvent) GetApplicationKey() entity.ApplicationKey { return e.Application.Key() }
func (e StatusChangeEvent) GetTimestamp() time.Time                  { return e.Timestamp }

// ApplicationCreatedEvent is published after a new application was stored.
type ApplicationCreatedEvent struct {
	// ID uniquely identifies this event.
	ID uuid.UUID `json:"id"`

	// Application is the application that was created.
	Application entity.Application `json:"application"`

	// Timestamp is when the application was created.
	Timestamp time.Time `json:"timestamp"`
}

// NewApplicationCreatedEvent creates an ApplicationCreatedEvent with a fresh ID.
func NewApplicationCreatedEvent(app entity.Application, at time.Time) ApplicationCreatedEvent {
	return ApplicationCreatedEvent{ID: uuid.New(), Application: app, Timestamp: at}
}

func (e ApplicationCreatedEvent) EventType() EventType { return EventTypeApplicationCreated }
func (e ApplicationCreatedEvent) GetID() uuid.UUID     { return e.ID }
func (e ApplicationCreatedEvent) GetApplicationKey() entity.ApplicationKey {
	return e.Application.Key()
}
func (e ApplicationCreatedEvent) GetTimestamp() time.Time { return e.Timestamp }

// Notifier delivers application events to an external party.
// Delivery is best-effort: callers log failures and never undo the store
// mutation that produced the event.
type Notifier interface {
	// Publish delivers a single event.
	Publish(ctx context.Context, event Event) error

	// Close releases any resources held by the notifier.
	Close() error
}
