package oracle

import (
	"context"
	"encoding/json"

	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/store"
)

// Apply folds one oracle event into the store.
func Apply(ctx context.Context, st *store.Store, writerID string, evt event.Event) error {
	switch evt.Type {
	case event.TypeOracleRegistered:
		var payload RegisterPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec := store.OracleRecord{
			ID:           payload.OracleID,
			RegisteredAt: evt.Timestamp,
		}
		copy(rec.Indexes[:], payload.Indexes)
		if err := st.PutOracle(ctx, writerID, rec); err != nil {
			return err
		}
		return st.CreditPool(ctx, writerID, payload.Fee)

	case event.TypeOracleRequested:
		var payload RequestPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec := store.RequestRecord{
			FlightKey: payload.FlightKey,
			Index:     payload.Index,
			Responses: make(map[store.FlightStatus][]string),
			OpenedAt:  evt.Timestamp,
			UpdatedAt: evt.Timestamp,
		}
		return st.PutRequest(ctx, writerID, rec)

	case event.TypeOracleReported:
		var payload ReportPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec, err := st.GetRequest(ctx, payload.FlightKey)
		if err != nil {
			return err
		}
		status := store.FlightStatus(payload.Status)
		if rec.Responses == nil {
			rec.Responses = make(map[store.FlightStatus][]string)
		}
		if !rec.HasResponseFrom(payload.OracleID) {
			rec.Responses[status] = append(rec.Responses[status], payload.OracleID)
		}
		if rec.SupportFor(status) >= Quorum {
			rec.Finalized = true
		}
		rec.UpdatedAt = evt.Timestamp
		return st.PutRequest(ctx, writerID, rec)
	}
	return nil
}
