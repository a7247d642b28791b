package ops

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	apperrors "github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/store"
)

const (
	// CommandTypeSetStatus flips the process-wide operational flag.
	CommandTypeSetStatus command.Type = "operations.set_status"
	// CommandTypeAuthorize adds a caller to the store allow-list.
	CommandTypeAuthorize command.Type = "operations.authorize"
	// CommandTypeDeauthorize removes a caller from the store allow-list.
	CommandTypeDeauthorize command.Type = "operations.deauthorize"
)

// EntityType is the entity addressing used by operations events.
const EntityType = "operations"

// StatusPayload captures the payload for operations.set_status commands and
// operations.status_set events.
type StatusPayload struct {
	Operational bool `json:"operational"`
}

// CallerPayload captures the payload for allow-list commands and events.
type CallerPayload struct {
	TargetID string `json:"target_id"`
}

// State captures the facts an operations command decides against.
type State struct {
	Owner       string
	Operational bool
}

// LoadState reads the operational state a command needs from the store.
func LoadState(ctx context.Context, st *store.Store, cmd command.Command) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	return State{Owner: st.Owner(), Operational: st.IsOperational()}, nil
}

// Decide returns the decision for an operations command against current state.
//
// Operations commands are exempt from the engine's operational gate;
// otherwise a paused ledger could never be resumed. The owner check here is
// the only authorization that applies.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	if cmd.CallerID != state.Owner {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeNotOwner,
			Message: "caller is not the ledger owner",
		})
	}

	if cmd.Type == CommandTypeSetStatus {
		var payload StatusPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		if payload.Operational == state.Operational {
			return command.Reject(command.Rejection{
				Code:    apperrors.CodeInvalidCommand,
				Message: "operational flag already holds that value",
			})
		}
		payloadJSON, _ := json.Marshal(StatusPayload{Operational: payload.Operational})
		evt := command.NewEvent(cmd, event.TypeOperationsStatusSet, EntityType, "status", payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	if cmd.Type == CommandTypeAuthorize || cmd.Type == CommandTypeDeauthorize {
		var payload CallerPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		target := strings.TrimSpace(payload.TargetID)
		if target == "" {
			return command.Reject(command.Rejection{
				Code:    apperrors.CodeInvalidCommand,
				Message: "target caller id is required",
			})
		}
		eventType := event.TypeCallerAuthorized
		if cmd.Type == CommandTypeDeauthorize {
			eventType = event.TypeCallerDeauthorized
		}
		payloadJSON, _ := json.Marshal(CallerPayload{TargetID: target})
		evt := command.NewEvent(cmd, eventType, EntityType, target, payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	return command.Reject(command.Rejection{
		Code:    apperrors.CodeInvalidCommand,
		Message: "unknown operations command",
	})
}

// Apply folds one operations event into the store. The event's caller is the
// owner, so owner-gated store methods use it directly.
func Apply(ctx context.Context, st *store.Store, writerID string, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch evt.Type {
	case event.TypeOperationsStatusSet:
		var payload StatusPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		return st.SetOperational(evt.CallerID, payload.Operational)

	case event.TypeCallerAuthorized:
		var payload CallerPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		return st.Authorize(evt.CallerID, payload.TargetID)

	case event.TypeCallerDeauthorized:
		var payload CallerPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		return st.Deauthorize(evt.CallerID, payload.TargetID)
	}
	return nil
}

// RegisterCommands registers operations commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	for _, def := range []command.Definition{
		{Type: CommandTypeSetStatus, ValidatePayload: validateStatusPayload},
		{Type: CommandTypeAuthorize, ValidatePayload: validateCallerPayload},
		{Type: CommandTypeDeauthorize, ValidatePayload: validateCallerPayload},
	} {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents registers operations event types with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	for _, def := range []event.Definition{
		{Type: event.TypeOperationsStatusSet, ValidatePayload: validateStatusPayload},
		{Type: event.TypeCallerAuthorized, ValidatePayload: validateCallerPayload},
		{Type: event.TypeCallerDeauthorized, ValidatePayload: validateCallerPayload},
	} {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func validateStatusPayload(raw json.RawMessage) error {
	var payload StatusPayload
	return json.Unmarshal(raw, &payload)
}

func validateCallerPayload(raw json.RawMessage) error {
	var payload CallerPayload
	return json.Unmarshal(raw, &payload)
}
