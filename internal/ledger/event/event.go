// Package event defines the immutable ledger event envelope.
package event

import (
	"strings"
	"time"
)

// Type identifies the type of a ledger event.
type Type string

// Airline lifecycle events.
const (
	// TypeAirlineRegistered records an airline admitted to the registry.
	TypeAirlineRegistered Type = "airline.registered"
	// TypeAirlineNominated records a candidate awaiting admission votes.
	TypeAirlineNominated Type = "airline.nominated"
	// TypeAirlineVoted records an admission vote for a candidate.
	TypeAirlineVoted Type = "airline.voted"
	// TypeAirlineFunded records an airline depositing the funding threshold.
	TypeAirlineFunded Type = "airline.funded"
)

// Flight events.
const (
	// TypeFlightRegistered records a flight created by a funded airline.
	TypeFlightRegistered Type = "flight.registered"
	// TypeFlightStatusFinalized records the one-time status finalization.
	TypeFlightStatusFinalized Type = "flight.status_finalized"
)

// Insurance events.
const (
	// TypeInsuranceBought records a passenger purchasing a policy.
	TypeInsuranceBought Type = "insurance.bought"
	// TypeInsuranceCredited records a policy credited after a delay finding.
	TypeInsuranceCredited Type = "insurance.credited"
	// TypePassengerPaid records a passenger withdrawing credited funds.
	TypePassengerPaid Type = "passenger.paid"
)

// Oracle events.
const (
	// TypeOracleRegistered records an oracle identity and its indexes.
	TypeOracleRegistered Type = "oracle.registered"
	// TypeOracleRequested records a status request opened for a flight.
	TypeOracleRequested Type = "oracle.requested"
	// TypeOracleReported records an accepted oracle response.
	TypeOracleReported Type = "oracle.reported"
)

// Operations events.
const (
	// TypeOperationsStatusSet records the operational flag being flipped.
	TypeOperationsStatusSet Type = "operations.status_set"
	// TypeCallerAuthorized records a caller added to the store allow-list.
	TypeCallerAuthorized Type = "operations.caller_authorized"
	// TypeCallerDeauthorized records a caller removed from the allow-list.
	TypeCallerDeauthorized Type = "operations.caller_deauthorized"
)

// Event represents an immutable event in the append-only ledger journal.
type Event struct {
	// Seq is the event sequence number (starts at 1).
	// Assigned by the journal on append.
	Seq uint64
	// Hash is the content-addressed identity (SHA-256 truncated to 128-bit).
	// Assigned by the journal on append.
	Hash string
	// PrevHash is the previous event's chain hash (empty for the first event).
	// Assigned by the journal on append.
	PrevHash string
	// ChainHash links this event to the previous event hash (SHA-256).
	// Assigned by the journal on append.
	ChainHash string
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// CallerID is the identity whose command produced the event.
	CallerID string
	// RequestID correlates related events (e.g., status request to responses).
	RequestID string
	// EntityType is the type of entity affected (airline, flight, policy, ...).
	EntityType string
	// EntityID is the ID of the entity affected.
	EntityID string
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "airline", "flight").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}
