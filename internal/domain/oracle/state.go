package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/store"
)

// State captures the facts an oracle command decides against.
type State struct {
	// Oracle is the submitting identity's oracle record, when one exists.
	Oracle       store.OracleRecord
	OracleExists bool

	// Flight is the addressed flight, when it exists.
	Flight       store.FlightRecord
	FlightExists bool

	// Request is the flight's status request, when one exists.
	Request       store.RequestRecord
	RequestExists bool

	// Policies are the flight's policies, loaded for report commands so a
	// finalizing quorum can credit them in the same decision.
	Policies []store.PolicyRecord

	// Entropy is the ledger-derived seed for index assignment, typically
	// the journal's chain head at decision time.
	Entropy string
}

// LoadState reads the oracle state a command needs from the store.
func LoadState(ctx context.Context, st *store.Store, cmd command.Command, entropy string) (State, error) {
	state := State{Entropy: entropy}

	if cmd.CallerID != "" {
		rec, err := st.GetOracle(ctx, cmd.CallerID)
		switch {
		case err == nil:
			state.Oracle = rec
			state.OracleExists = true
		case errors.Is(err, store.ErrNotFound):
		default:
			return State{}, err
		}
	}

	var addressed struct {
		FlightKey string `json:"flight_key"`
	}
	_ = json.Unmarshal(cmd.PayloadJSON, &addressed)
	flightKey := strings.TrimSpace(addressed.FlightKey)
	if flightKey == "" {
		return state, nil
	}

	flight, err := st.GetFlight(ctx, flightKey)
	switch {
	case err == nil:
		state.Flight = flight
		state.FlightExists = true
	case errors.Is(err, store.ErrNotFound):
	default:
		return State{}, err
	}

	request, err := st.GetRequest(ctx, flightKey)
	switch {
	case err == nil:
		state.Request = request
		state.RequestExists = true
	case errors.Is(err, store.ErrNotFound):
	default:
		return State{}, err
	}

	if cmd.Type == CommandTypeReport {
		policies, err := st.ListPoliciesByFlight(ctx, flightKey)
		if err != nil {
			return State{}, err
		}
		state.Policies = policies
	}

	return state, nil
}
