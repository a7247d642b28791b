package flight

import (
	"encoding/json"
	"errors"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
)

// RegisterCommands registers flight commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeRegister,
		ValidatePayload: validateRegisterPayload,
	})
}

// RegisterEvents registers flight event types with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	if err := registry.Register(event.Definition{
		Type:            event.TypeFlightRegistered,
		ValidatePayload: validateRegisterPayload,
	}); err != nil {
		return err
	}
	return registry.Register(event.Definition{
		Type:            event.TypeFlightStatusFinalized,
		ValidatePayload: validateStatusFinalizedPayload,
	})
}

func validateRegisterPayload(raw json.RawMessage) error {
	var payload RegisterPayload
	return json.Unmarshal(raw, &payload)
}

func validateStatusFinalizedPayload(raw json.RawMessage) error {
	var payload StatusFinalizedPayload
	return json.Unmarshal(raw, &payload)
}
