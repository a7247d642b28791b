package airline

// RegisterPayload captures the payload for airline.register commands and the
// airline.registered / airline.nominated events.
type RegisterPayload struct {
	AirlineID string `json:"airline_id"`
}

// VotePayload captures the payload for airline.vote commands and airline.voted events.
type VotePayload struct {
	AirlineID string `json:"airline_id"`
	VoterID   string `json:"voter_id,omitempty"`
}

// FundPayload captures the payload for airline.fund commands and airline.funded events.
type FundPayload struct {
	AirlineID string `json:"airline_id,omitempty"`
	Amount    uint64 `json:"amount"`
}
