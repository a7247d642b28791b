package airline

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/store"
)

const (
	// CommandTypeRegister sponsors a candidate airline for admission.
	CommandTypeRegister command.Type = "airline.register"
	// CommandTypeVote records an admission vote for a nominated candidate.
	CommandTypeVote command.Type = "airline.vote"
	// CommandTypeFund deposits the funding threshold for the caller's airline.
	CommandTypeFund command.Type = "airline.fund"
)

const (
	// FundingThreshold is the minimum deposit unlocking airline privileges.
	FundingThreshold = 10 * store.Token
	// ImmediateAdmissionLimit is the participant count below which a
	// sponsorship admits the candidate without a vote.
	ImmediateAdmissionLimit = 4
)

// EntityType is the entity addressing used by airline events.
const EntityType = "airline"

// VoteThreshold returns the distinct-vote count required to admit a
// candidate given how many airlines are currently funded.
func VoteThreshold(fundedCount int) int {
	if fundedCount < 1 {
		return 1
	}
	return (fundedCount + 1) / 2
}

// Decide returns the decision for an airline governance command against
// current state.
//
// Admission is sponsor-gated: only funded airlines nominate, vote, or admit.
// The decider never mutates storage; it emits events the fold applies.
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
		candidateID := strings.TrimSpace(payload.AirlineID)
		if candidateID == "" {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "airline id is required",
			})
		}
		if state.CandidateExists {
			if state.Candidate.Status == store.AirlineNominated {
				return command.Reject(command.Rejection{
					Code:    errors.CodeAlreadyRegistered,
					Message: "airline is already nominated",
				})
			}
			return command.Reject(command.Rejection{
				Code:    errors.CodeAlreadyRegistered,
				Message: "airline is already registered",
			})
		}

		payloadJSON, _ := json.Marshal(RegisterPayload{AirlineID: candidateID})
		if state.Participants < ImmediateAdmissionLimit {
			evt := command.NewEvent(cmd, event.TypeAirlineRegistered, EntityType, candidateID, payloadJSON, now().UTC())
			return command.Accept(evt)
		}
		evt := command.NewEvent(cmd, event.TypeAirlineNominated, EntityType, candidateID, payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	if cmd.Type == CommandTypeVote {
		if !state.CallerExists || state.Caller.Status != store.AirlineFunded {
			return command.Reject(command.Rejection{
				Code:    errors.CodeNotFunded,
				Message: "caller is not a funded airline",
			})
		}
		var payload VotePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		candidateID := strings.TrimSpace(payload.AirlineID)
		if candidateID == "" {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "airline id is required",
			})
		}
		if !state.CandidateExists {
			return command.Reject(command.Rejection{
				Code:    errors.CodeNotFound,
				Message: "airline is not nominated",
			})
		}
		if state.Candidate.Status != store.AirlineNominated {
			return command.Reject(command.Rejection{
				Code:    errors.CodeAlreadyRegistered,
				Message: "airline is already registered",
			})
		}
		if state.Candidate.HasVoteFrom(cmd.CallerID) {
			return command.Reject(command.Rejection{
				Code:    errors.CodeAlreadyVoted,
				Message: "caller already voted for this airline",
			})
		}

		votePayload, _ := json.Marshal(VotePayload{AirlineID: candidateID, VoterID: cmd.CallerID})
		voted := command.NewEvent(cmd, event.TypeAirlineVoted, EntityType, candidateID, votePayload, now().UTC())

		votes := len(state.Candidate.VoterIDs) + 1
		if votes < VoteThreshold(state.FundedCount) {
			return command.Accept(voted)
		}

		registerPayload, _ := json.Marshal(RegisterPayload{AirlineID: candidateID})
		registered := command.NewEvent(cmd, event.TypeAirlineRegistered, EntityType, candidateID, registerPayload, now().UTC())
		return command.Accept(voted, registered)
	}

	if cmd.Type == CommandTypeFund {
		if !state.CandidateExists || state.Candidate.Status == store.AirlineNominated {
			return command.Reject(command.Rejection{
				Code:    errors.CodeNotRegistered,
				Message: "airline is not registered",
			})
		}
		if state.Candidate.Status == store.AirlineFunded {
			return command.Reject(command.Rejection{
				Code:    errors.CodeAlreadyFunded,
				Message: "airline is already funded",
			})
		}
		var payload FundPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		if payload.Amount < FundingThreshold {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInsufficientFunds,
				Message: "deposit is below the funding threshold",
			})
		}

		payloadJSON, _ := json.Marshal(FundPayload{AirlineID: cmd.CallerID, Amount: payload.Amount})
		evt := command.NewEvent(cmd, event.TypeAirlineFunded, EntityType, cmd.CallerID, payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	return command.Reject(command.Rejection{
		Code:    errors.CodeInvalidCommand,
		Message: "unknown airline command",
	})
}
