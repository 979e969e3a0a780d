package events

import "time"

// Event codes emitted by the local API.
const (
	TypeUserSignup      = "USER_SIGNUP"
	TypeUserLogin       = "USER_LOGIN"
	TypeCreationDeleted = "CREATION_DELETED"
)

// Event is the contract every published system event satisfies.
type Event interface {
	// EventType returns the unique code for this event (e.g. "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used across services.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
