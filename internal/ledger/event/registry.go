package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTypeRequired indicates a missing event type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrTypeUnknown indicates an unregistered event type.
	ErrTypeUnknown = errors.New("event type is not registered")
	// ErrEntityTypeRequired indicates missing entity addressing.
	ErrEntityTypeRequired = errors.New("entity type is required")
	// ErrEntityIDRequired indicates missing entity addressing.
	ErrEntityIDRequired = errors.New("entity id is required")
	// ErrTimestampRequired indicates a missing event timestamp.
	ErrTimestampRequired = errors.New("event timestamp is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for an event type.
type Definition struct {
	Type            Type
	ValidatePayload PayloadValidator
}

// Registry stores event definitions and validates events before append.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new event type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("event type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// ValidateForAppend validates and normalizes an event before it enters the journal.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	evt.Type = Type(strings.TrimSpace(string(evt.Type)))
	if evt.Type == "" {
		return Event{}, ErrTypeRequired
	}
	def, ok := r.definitions[evt.Type]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrTypeUnknown, evt.Type)
	}

	evt.EntityType = strings.TrimSpace(evt.EntityType)
	if evt.EntityType == "" {
		return Event{}, ErrEntityTypeRequired
	}
	evt.EntityID = strings.TrimSpace(evt.EntityID)
	if evt.EntityID == "" {
		return Event{}, ErrEntityIDRequired
	}
	if evt.Timestamp.IsZero() {
		return Event{}, ErrTimestampRequired
	}

	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte("{}")
	}
	if !json.Valid(evt.PayloadJSON) {
		return Event{}, ErrPayloadInvalid
	}
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(json.RawMessage(evt.PayloadJSON)); err != nil {
			return Event{}, fmt.Errorf("payload invalid: %w", err)
		}
	}
	return evt, nil
}

// Known reports whether the event type is registered.
func (r *Registry) Known(eventType Type) bool {
	if r == nil {
		return false
	}
	_, ok := r.definitions[Type(strings.TrimSpace(string(eventType)))]
	return ok
}
