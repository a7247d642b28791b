package insurance

// BuyPayload captures the payload for insurance.buy commands and
// insurance.bought events.
type BuyPayload struct {
	FlightKey   string `json:"flight_key"`
	PassengerID string `json:"passenger_id,omitempty"`
	Amount      uint64 `json:"amount"`
}

// CreditedPayload captures the payload for insurance.credited events.
// Amount is the credited payout, premium times the multiplier.
type CreditedPayload struct {
	FlightKey   string `json:"flight_key"`
	PassengerID string `json:"passenger_id"`
	Amount      uint64 `json:"amount"`
}

// WithdrawPayload captures the payload for insurance.withdraw commands and
// passenger.paid events.
type WithdrawPayload struct {
	PassengerID string `json:"passenger_id,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
}
