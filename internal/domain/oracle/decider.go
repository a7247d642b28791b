package oracle

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/skysurety/skysurety/internal/domain/flight"
	"github.com/skysurety/skysurety/internal/domain/insurance"
	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/store"
)

const (
	// CommandTypeRegister registers the caller as an oracle.
	CommandTypeRegister command.Type = "oracle.register"
	// CommandTypeRequest opens a status request for a flight.
	CommandTypeRequest command.Type = "oracle.request"
	// CommandTypeReport submits one oracle's status response.
	CommandTypeReport command.Type = "oracle.report"
)

const (
	// RegistrationFee is the minimum deposit to register an oracle identity.
	RegistrationFee = 1 * store.Token
	// Quorum is the distinct-responder count that finalizes a status.
	Quorum = 3
)

const (
	// EntityType is the entity addressing used by oracle events.
	EntityType = "oracle"
	// RequestEntityType is the entity addressing used by request events.
	RequestEntityType = "request"
)

// Decide returns the decision for an oracle command against current state.
//
// Quorum detection is first-to-reach: the response that brings any status
// code's distinct supporter count to Quorum finalizes the flight in the same
// decision, so two conflicting codes can never both finalize.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == CommandTypeRegister {
		if state.OracleExists {
			return command.Reject(command.Rejection{
				Code:    errors.CodeAlreadyRegistered,
				Message: "oracle is already registered",
			})
		}
		var payload RegisterPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		if payload.Fee < RegistrationFee {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInsufficientFunds,
				Message: "fee is below the oracle registration fee",
			})
		}

		indexes := DeriveIndexes(cmd.CallerID, state.Entropy)
		payloadJSON, _ := json.Marshal(RegisterPayload{
			OracleID: cmd.CallerID,
			Fee:      payload.Fee,
			Indexes:  indexes[:],
		})
		evt := command.NewEvent(cmd, event.TypeOracleRegistered, EntityType, cmd.CallerID, payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	if cmd.Type == CommandTypeRequest {
		var payload RequestPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		flightKey := strings.TrimSpace(payload.FlightKey)
		if flightKey == "" {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "flight key is required",
			})
		}
		if !state.FlightExists || !state.Flight.IsRegistered {
			return command.Reject(command.Rejection{
				Code:    errors.CodeUnknownFlight,
				Message: "flight is not registered",
			})
		}
		if state.Flight.Status.IsFinal() || (state.RequestExists && state.Request.Finalized) {
			return command.Reject(command.Rejection{
				Code:    errors.CodeRequestFinalized,
				Message: "flight status is already finalized",
			})
		}
		if state.RequestExists {
			return command.Reject(command.Rejection{
				Code:    errors.CodeRequestPending,
				Message: "status request is already open",
			})
		}

		index := ChooseIndex(cmd.CallerID, flightKey, state.Entropy)
		payloadJSON, _ := json.Marshal(RequestPayload{FlightKey: flightKey, Index: index})
		evt := command.NewEvent(cmd, event.TypeOracleRequested, RequestEntityType, flightKey, payloadJSON, now().UTC())
		return command.Accept(evt)
	}

	if cmd.Type == CommandTypeReport {
		if !state.OracleExists {
			return command.Reject(command.Rejection{
				Code:    errors.CodeNotRegistered,
				Message: "caller is not a registered oracle",
			})
		}
		var payload ReportPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		flightKey := strings.TrimSpace(payload.FlightKey)
		if flightKey == "" {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "flight key is required",
			})
		}
		status := store.FlightStatus(payload.Status)
		if !status.IsValid() || status == store.FlightStatusUnknown {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidCommand,
				Message: "reported status is not a valid code",
			})
		}
		if !state.RequestExists {
			return command.Reject(command.Rejection{
				Code:    errors.CodeNotFound,
				Message: "no status request is open for this flight",
			})
		}
		if state.Request.Finalized {
			return command.Reject(command.Rejection{
				Code:    errors.CodeRequestFinalized,
				Message: "status request is already finalized",
			})
		}
		if payload.Index != state.Request.Index || !state.Oracle.HoldsIndex(payload.Index) {
			return command.Reject(command.Rejection{
				Code:    errors.CodeInvalidIndex,
				Message: "caller does not hold the requested index",
			})
		}
		if state.Request.HasResponseFrom(cmd.CallerID) {
			return command.Reject(command.Rejection{
				Code:    errors.CodeAlreadyVoted,
				Message: "oracle already responded to this request",
			})
		}

		ts := now().UTC()
		reportJSON, _ := json.Marshal(ReportPayload{
			FlightKey: flightKey,
			Index:     payload.Index,
			Status:    payload.Status,
			OracleID:  cmd.CallerID,
		})
		reported := command.NewEvent(cmd, event.TypeOracleReported, RequestEntityType, flightKey, reportJSON, ts)

		if state.Request.SupportFor(status)+1 < Quorum {
			return command.Accept(reported)
		}

		events := []event.Event{reported}
		finalizedJSON, _ := json.Marshal(flight.StatusFinalizedPayload{
			FlightKey: flightKey,
			Status:    payload.Status,
		})
		events = append(events, command.NewEvent(cmd, event.TypeFlightStatusFinalized, flight.EntityType, flightKey, finalizedJSON, ts))

		if status == store.FlightStatusLateAirline {
			for _, policy := range state.Policies {
				if policy.Settled || policy.Premium == 0 {
					continue
				}
				creditedJSON, _ := json.Marshal(insurance.CreditedPayload{
					FlightKey:   flightKey,
					PassengerID: policy.PassengerID,
					Amount:      insurance.Payout(policy.Premium),
				})
				events = append(events, command.NewEvent(cmd, event.TypeInsuranceCredited, insurance.EntityType,
					flightKey+"/"+policy.PassengerID, creditedJSON, ts))
			}
		}
		return command.Accept(events...)
	}

	return command.Reject(command.Rejection{
		Code:    errors.CodeInvalidCommand,
		Message: "unknown oracle command",
	})
}
