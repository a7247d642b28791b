package command

import (
	"time"

	"github.com/skysurety/skysurety/internal/ledger/event"
)

// NewEvent builds an event.Event by copying the shared envelope fields from a
// command. Callers supply the event-specific type, entity addressing, payload,
// and timestamp. This eliminates per-decider boilerplate and ensures that new
// envelope fields are automatically forwarded.
func NewEvent(cmd Command, eventType event.Type, entityType, entityID string, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		Type:        eventType,
		Timestamp:   now,
		CallerID:    cmd.CallerID,
		RequestID:   cmd.RequestID,
		EntityType:  entityType,
		EntityID:    entityID,
		PayloadJSON: payloadJSON,
	}
}
