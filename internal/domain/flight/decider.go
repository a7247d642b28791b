package flight

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/store"
)

// CommandTypeRegister creates a flight under the caller's airline.
const CommandTypeRegister command.Type = "flight.register"

// EntityType is the entity addressing used by flight events.
const EntityType = "flight"

// Decide returns the decision for a flight command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == CommandTypeRegister {
		if !state.CallerExists || state.Caller.Status != store.AirlineFunded {
			return command.Reject(command.Rejection{
				Code:    errors.CodeNotFunded,
				Message: "caller is not a funded airline",
			})
		}
		var payload RegisterPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		name := strings.TrimSpace(payload.Name)
		if name == "" {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "flight name is required",
			})
		}
		if payload.DepartsAt <= 0 {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "departure timestamp is required",
			})
		}
		if state.KeyExists {
			return command.Reject(command.Rejection{
				Code:    errors.CodeDuplicateFlight,
				Message: "flight is already registered",
			})
		}

		key := Key(cmd.CallerID, name, time.Unix(payload.DepartsAt, 0))
		payloadJSON, _ := json.Marshal(RegisterPayload{
			FlightKey: key,
			AirlineID: cmd.CallerID,
			Name:      name,
			DepartsAt: payload.DepartsAt,
		})
		evt := command.NewEvent(cmd, event.TypeFlightRegistered, EntityType, key, payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	return command.Reject(command.Rejection{
		Code:    errors.CodeInvalidCommand,
		Message: "unknown flight command",
	})
}
