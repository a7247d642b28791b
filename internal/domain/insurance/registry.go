package insurance

import (
	"encoding/json"
	"errors"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
)

// RegisterCommands registers insurance commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypeBuy,
		ValidatePayload: validateBuyPayload,
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeWithdraw,
		ValidatePayload: validateWithdrawPayload,
	})
}

// RegisterEvents registers insurance event types with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	for _, def := range []event.Definition{
		{Type: event.TypeInsuranceBought, ValidatePayload: validateBuyPayload},
		{Type: event.TypeInsuranceCredited, ValidatePayload: validateCreditedPayload},
		{Type: event.TypePassengerPaid, ValidatePayload: validateWithdrawPayload},
	} {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func validateBuyPayload(raw json.RawMessage) error {
	var payload BuyPayload
	return json.Unmarshal(raw, &payload)
}

func validateCreditedPayload(raw json.RawMessage) error {
	var payload CreditedPayload
	return json.Unmarshal(raw, &payload)
}

func validateWithdrawPayload(raw json.RawMessage) error {
	var payload WithdrawPayload
	return json.Unmarshal(raw, &payload)
}
