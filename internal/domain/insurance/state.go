package insurance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/store"
)

// State captures the facts an insurance command decides against.
type State struct {
	// Flight is the policy's flight, when it exists.
	Flight       store.FlightRecord
	FlightExists bool

	// Policy is the caller's existing policy on the flight, when one exists.
	Policy       store.PolicyRecord
	PolicyExists bool

	// CreditBalance is the caller's withdrawable amount.
	CreditBalance uint64
}

// LoadState reads the insurance state a command needs from the store.
func LoadState(ctx context.Context, st *store.Store, cmd command.Command) (State, error) {
	var state State

	if cmd.Type == CommandTypeBuy {
		var payload BuyPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		flightKey := strings.TrimSpace(payload.FlightKey)
		if flightKey != "" {
			rec, err := st.GetFlight(ctx, flightKey)
			switch {
			case err == nil:
				state.Flight = rec
				state.FlightExists = true
			case errors.Is(err, store.ErrNotFound):
			default:
				return State{}, err
			}

			policy, err := st.GetPolicy(ctx, flightKey, cmd.CallerID)
			switch {
			case err == nil:
				state.Policy = policy
				state.PolicyExists = true
			case errors.Is(err, store.ErrNotFound):
			default:
				return State{}, err
			}
		}
	}

	if cmd.Type == CommandTypeWithdraw {
		balance, err := st.CreditBalance(ctx, cmd.CallerID)
		if err != nil {
			return State{}, err
		}
		state.CreditBalance = balance
	}

	return state, nil
}
