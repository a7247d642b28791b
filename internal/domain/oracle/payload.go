package oracle

// RegisterPayload captures the payload for oracle.register commands and
// oracle.registered events. Indexes is populated only on the event.
type RegisterPayload struct {
	OracleID string  `json:"oracle_id,omitempty"`
	Fee      uint64  `json:"fee"`
	Indexes  []uint8 `json:"indexes,omitempty"`
}

// RequestPayload captures the payload for oracle.request commands and
// oracle.requested events. Index is populated only on the event.
type RequestPayload struct {
	FlightKey string `json:"flight_key"`
	Index     uint8  `json:"index,omitempty"`
}

// ReportPayload captures the payload for oracle.report commands and
// oracle.reported events.
type ReportPayload struct {
	FlightKey string `json:"flight_key"`
	Index     uint8  `json:"index"`
	Status    uint   `json:"status"`
	OracleID  string `json:"oracle_id,omitempty"`
}
