package flight

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/store"
)

// State captures the facts a flight command decides against.
type State struct {
	// Caller is the submitting identity's airline record, when one exists.
	Caller       store.AirlineRecord
	CallerExists bool

	// KeyExists reports whether the derived flight key is already taken.
	KeyExists bool
}

// LoadState reads the flight registration state a command needs from the store.
func LoadState(ctx context.Context, st *store.Store, cmd command.Command) (State, error) {
	var state State

	rec, err := st.GetAirline(ctx, cmd.CallerID)
	switch {
	case err == nil:
		state.Caller = rec
		state.CallerExists = true
	case errors.Is(err, store.ErrNotFound):
	default:
		return State{}, err
	}

	var payload RegisterPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	airlineID := strings.TrimSpace(payload.AirlineID)
	if airlineID == "" {
		airlineID = cmd.CallerID
	}
	name := strings.TrimSpace(payload.Name)
	if name != "" {
		key := Key(airlineID, name, time.Unix(payload.DepartsAt, 0))
		if _, err := st.GetFlight(ctx, key); err == nil {
			state.KeyExists = true
		} else if !errors.Is(err, store.ErrNotFound) {
			return State{}, err
		}
	}

	return state, nil
}
