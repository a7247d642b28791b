package oracle

import (
	"encoding/json"
	"errors"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
)

// RegisterCommands registers oracle commands with the shared registry.
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
		Type:            CommandTypeRequest,
		ValidatePayload: validateRequestPayload,
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeReport,
		ValidatePayload: validateReportPayload,
	})
}

// RegisterEvents registers oracle event types with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	for _, def := range []event.Definition{
		{Type: event.TypeOracleRegistered, ValidatePayload: validateRegisterPayload},
		{Type: event.TypeOracleRequested, ValidatePayload: validateRequestPayload},
		{Type: event.TypeOracleReported, ValidatePayload: validateReportPayload},
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

func validateRequestPayload(raw json.RawMessage) error {
	var payload RequestPayload
	return json.Unmarshal(raw, &payload)
}

func validateReportPayload(raw json.RawMessage) error {
	var payload ReportPayload
	return json.Unmarshal(raw, &payload)
}
