package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event tells listeners that the value stored under Key changed.
type Event struct {
	ID    uuid.UUID       `json:"id"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
	// Origin identifies the bus (process) the write happened in.
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
	// Remote is set on events relayed from another process; those are never relayed again.
	Remote bool `json:"-"`
}

// NewEvent returns an Event for a write of value under key.
func NewEvent(key string, value json.RawMessage) Event {
	return Event{
		ID:    uuid.New(),
		Key:   key,
		Value: value,
		At:    time.Now().UTC(),
	}
}
