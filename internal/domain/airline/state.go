package airline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/store"
)

// State captures the governance facts a single airline command decides against.
type State struct {
	// Candidate is the airline the command addresses. For fund commands the
	// candidate is the caller's own record.
	Candidate       store.AirlineRecord
	CandidateExists bool

	// Caller is the submitting identity's airline record, when one exists.
	Caller       store.AirlineRecord
	CallerExists bool

	// Participants counts airlines currently Registered or Funded.
	Participants int
	// FundedCount counts airlines currently Funded; the vote threshold is
	// derived from it at decision time.
	FundedCount int
}

// LoadState reads the governance state a command needs from the store.
func LoadState(ctx context.Context, st *store.Store, cmd command.Command) (State, error) {
	var state State

	candidateID := cmd.CallerID
	if cmd.Type == CommandTypeRegister || cmd.Type == CommandTypeVote {
		var payload RegisterPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		candidateID = strings.TrimSpace(payload.AirlineID)
	}

	if candidateID != "" {
		rec, err := st.GetAirline(ctx, candidateID)
		switch {
		case err == nil:
			state.Candidate = rec
			state.CandidateExists = true
		case errors.Is(err, store.ErrNotFound):
		default:
			return State{}, err
		}
	}

	if cmd.CallerID != "" && cmd.CallerID != candidateID {
		rec, err := st.GetAirline(ctx, cmd.CallerID)
		switch {
		case err == nil:
			state.Caller = rec
			state.CallerExists = true
		case errors.Is(err, store.ErrNotFound):
		default:
			return State{}, err
		}
	} else if state.CandidateExists && cmd.CallerID == candidateID {
		state.Caller = state.Candidate
		state.CallerExists = true
	}

	participants, err := st.CountAirlines(ctx, store.AirlineRegistered, store.AirlineFunded)
	if err != nil {
		return State{}, err
	}
	state.Participants = participants

	funded, err := st.CountAirlines(ctx, store.AirlineFunded)
	if err != nil {
		return State{}, err
	}
	state.FundedCount = funded

	return state, nil
}
