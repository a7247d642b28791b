package store

import "time"

// Token is one whole token in the ledger's integral micro-token units.
// All escrowed amounts (funding, premiums, credits) are micro-token counts.
const Token uint64 = 1_000_000

// AirlineStatus tracks an airline through the admission lifecycle.
type AirlineStatus int

const (
	// AirlineUnregistered is the zero status for unknown identities.
	AirlineUnregistered AirlineStatus = iota
	// AirlineNominated marks a candidate awaiting admission votes.
	AirlineNominated
	// AirlineRegistered marks an admitted airline that has not funded yet.
	AirlineRegistered
	// AirlineFunded marks an airline that deposited the funding threshold.
	AirlineFunded
)

// String returns the lifecycle label for an airline status.
func (s AirlineStatus) String() string {
	switch s {
	case AirlineNominated:
		return "nominated"
	case AirlineRegistered:
		return "registered"
	case AirlineFunded:
		return "funded"
	default:
		return "unregistered"
	}
}

// FlightStatus is the finalized delay classification for a flight.
//
// The numeric codes match the reporting convention oracles use on the wire.
type FlightStatus uint

const (
	// FlightStatusUnknown means no quorum has finalized the flight yet.
	FlightStatusUnknown FlightStatus = 0
	// FlightStatusOnTime means the flight departed as scheduled.
	FlightStatusOnTime FlightStatus = 10
	// FlightStatusLateAirline means an airline-caused delay; triggers payout.
	FlightStatusLateAirline FlightStatus = 20
	// FlightStatusLateWeather means a weather delay.
	FlightStatusLateWeather FlightStatus = 30
	// FlightStatusLateTechnical means a technical delay.
	FlightStatusLateTechnical FlightStatus = 40
	// FlightStatusLateOther means a delay outside the named causes.
	FlightStatusLateOther FlightStatus = 50
)

// IsValid reports whether the status is one of the reportable codes.
func (s FlightStatus) IsValid() bool {
	switch s {
	case FlightStatusUnknown, FlightStatusOnTime, FlightStatusLateAirline,
		FlightStatusLateWeather, FlightStatusLateTechnical, FlightStatusLateOther:
		return true
	}
	return false
}

// IsFinal reports whether the status closes the flight.
func (s FlightStatus) IsFinal() bool {
	return s.IsValid() && s != FlightStatusUnknown
}

// AirlineRecord captures airline admission and funding state.
type AirlineRecord struct {
	ID string
	Status AirlineStatus
	// VoterIDs holds the distinct funded airlines that voted to admit
	// this candidate, in vote order.
	VoterIDs  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasVoteFrom reports whether the voter already voted for this candidate.
func (a AirlineRecord) HasVoteFrom(voterID string) bool {
	for _, v := range a.VoterIDs {
		if v == voterID {
			return true
		}
	}
	return false
}

// FlightRecord captures one registered flight and its finalized status.
type FlightRecord struct {
	Key          string
	AirlineID    string
	Name         string
	DepartsAt    time.Time
	IsRegistered bool
	Status       FlightStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PolicyRecord captures one passenger's insurance position on a flight.
type PolicyRecord struct {
	FlightKey   string
	PassengerID string
	// Premium is the accumulated amount paid, bounded by the insurance cap.
	Premium uint64
	// Credited is set exactly once, by finalization with an airline delay.
	Credited uint64
	// Settled marks the policy as credited.
	Settled bool
	// Paid marks the credited amount as withdrawn by the passenger.
	Paid      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OracleRecord captures a registered oracle and its immutable indexes.
type OracleRecord struct {
	ID           string
	Indexes      [3]uint8
	RegisteredAt time.Time
}

// HoldsIndex reports whether the oracle was assigned the given index.
func (o OracleRecord) HoldsIndex(index uint8) bool {
	return o.Indexes[0] == index || o.Indexes[1] == index || o.Indexes[2] == index
}

// RequestRecord captures one open or finalized status request for a flight.
type RequestRecord struct {
	FlightKey string
	// Index is the randomly chosen index oracles must hold to respond.
	Index uint8
	// Finalized marks the request as consumed by a quorum.
	Finalized bool
	// Responses maps each reported status to the oracles that reported it.
	Responses map[FlightStatus][]string
	OpenedAt  time.Time
	UpdatedAt time.Time
}

// HasResponseFrom reports whether the oracle already responded to this request.
func (r RequestRecord) HasResponseFrom(oracleID string) bool {
	for _, responders := range r.Responses {
		for _, id := range responders {
			if id == oracleID {
				return true
			}
		}
	}
	return false
}

// SupportFor returns the number of distinct oracles backing a status.
func (r RequestRecord) SupportFor(status FlightStatus) int {
	return len(r.Responses[status])
}

func cloneAirline(rec AirlineRecord) AirlineRecord {
	rec.VoterIDs = append([]string(nil), rec.VoterIDs...)
	return rec
}

func cloneRequest(rec RequestRecord) RequestRecord {
	if rec.Responses != nil {
		responses := make(map[FlightStatus][]string, len(rec.Responses))
		for status, responders := range rec.Responses {
			responses[status] = append([]string(nil), responders...)
		}
		rec.Responses = responses
	}
	return rec
}
