package core

import "time"

const (
	EventCreated    EventType = "created"
	EventUpdated    EventType = "updated"
	EventArchived   EventType = "archived"
	EventUnarchived EventType = "unarchived"
	EventDeleted    EventType = "deleted"
	EventCleared    EventType = "cleared"
	EventImported   EventType = "imported"
)

type (
	// EventType names a change made to the transaction store.
	EventType string

	// Event describes one successful mutation. TransactionID is empty for
	// store-wide events such as EventCleared.
	Event struct {
		Type          EventType `json:"type"`
		TransactionID string    `json:"id,omitempty"`
		At            time.Time `json:"timestamp"`
	}
)

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, id string) Event {
	return Event{Type: t, TransactionID: id, At: time.Now().UTC()}
}
