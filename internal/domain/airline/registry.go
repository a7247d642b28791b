package airline

import (
	"encoding/json"
	"errors"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
)

// RegisterCommands registers airline commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypeRegister,
		ValidatePayload: validateRegisterPayload,
	}); err != nil {
		return err
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypeVote,
		ValidatePayload: validateVotePayload,
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeFund,
		ValidatePayload: validateFundPayload,
	})
}

// RegisterEvents registers airline event types with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	for _, def := range []event.Definition{
		{Type: event.TypeAirlineRegistered, ValidatePayload: validateRegisterPayload},
		{Type: event.TypeAirlineNominated, ValidatePayload: validateRegisterPayload},
		{Type: event.TypeAirlineVoted, ValidatePayload: validateVotePayload},
		{Type: event.TypeAirlineFunded, ValidatePayload: validateFundPayload},
	} {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func validateRegisterPayload(raw json.RawMessage) error {
	var payload RegisterPayload
	return json.Unmarshal(raw, &payload)
}

func validateVotePayload(raw json.RawMessage) error {
	var payload VotePayload
	return json.Unmarshal(raw, &payload)
}

func validateFundPayload(raw json.RawMessage) error {
	var payload FundPayload
	return json.Unmarshal(raw, &payload)
}
