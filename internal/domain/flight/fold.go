package flight

import (
	"context"
	"encoding/json"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/store"
)

// Apply folds one flight event into the store.
func Apply(ctx context.Context, st *store.Store, writerID string, evt event.Event) error {
	switch evt.Type {
	case event.TypeFlightRegistered:
		var payload RegisterPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec := store.FlightRecord{
			Key:          payload.FlightKey,
			AirlineID:    payload.AirlineID,
			Name:         payload.Name,
			DepartsAt:    time.Unix(payload.DepartsAt, 0).UTC(),
			IsRegistered: true,
			Status:       store.FlightStatusUnknown,
			CreatedAt:    evt.Timestamp,
			UpdatedAt:    evt.Timestamp,
		}
		return st.PutFlight(ctx, writerID, rec)

	case event.TypeFlightStatusFinalized:
		var payload StatusFinalizedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec, err := st.GetFlight(ctx, payload.FlightKey)
		if err != nil {
			return err
		}
		rec.Status = store.FlightStatus(payload.Status)
		rec.UpdatedAt = evt.Timestamp
		return st.PutFlight(ctx, writerID, rec)
	}
	return nil
}
