package flight

// RegisterPayload captures the payload for flight.register commands and
// flight.registered events. DepartsAt is a unix timestamp in seconds.
type RegisterPayload struct {
	FlightKey string `json:"flight_key,omitempty"`
	AirlineID string `json:"airline_id"`
	Name      string `json:"name"`
	DepartsAt int64  `json:"departs_at"`
}

// StatusFinalizedPayload captures the payload for flight.status_finalized
// events emitted when an oracle quorum fixes a flight's status.
type StatusFinalizedPayload struct {
	FlightKey string `json:"flight_key"`
	Status    uint   `json:"status"`
}
