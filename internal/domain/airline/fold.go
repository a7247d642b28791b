package airline

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/store"
)

// Apply folds one airline event into the store. writerID is the identity the
// engine uses on the store's allow-list.
func Apply(ctx context.Context, st *store.Store, writerID string, evt event.Event) error {
	switch evt.Type {
	case event.TypeAirlineRegistered:
		var payload RegisterPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec, err := st.GetAirline(ctx, payload.AirlineID)
		if errors.Is(err, store.ErrNotFound) {
			rec = store.AirlineRecord{ID: payload.AirlineID, CreatedAt: evt.Timestamp}
		} else if err != nil {
			return err
		}
		rec.Status = store.AirlineRegistered
		rec.UpdatedAt = evt.Timestamp
		return st.PutAirline(ctx, writerID, rec)

	case event.TypeAirlineNominated:
		var payload RegisterPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec := store.AirlineRecord{
			ID:        payload.AirlineID,
			Status:    store.AirlineNominated,
			CreatedAt: evt.Timestamp,
			UpdatedAt: evt.Timestamp,
		}
		return st.PutAirline(ctx, writerID, rec)

	case event.TypeAirlineVoted:
		var payload VotePayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec, err := st.GetAirline(ctx, payload.AirlineID)
		if err != nil {
			return err
		}
		if !rec.HasVoteFrom(payload.VoterID) {
			rec.VoterIDs = append(rec.VoterIDs, payload.VoterID)
		}
		rec.UpdatedAt = evt.Timestamp
		return st.PutAirline(ctx, writerID, rec)

	case event.TypeAirlineFunded:
		var payload FundPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		rec, err := st.GetAirline(ctx, payload.AirlineID)
		if err != nil {
			return err
		}
		rec.Status = store.AirlineFunded
		rec.UpdatedAt = evt.Timestamp
		if err := st.PutAirline(ctx, writerID, rec); err != nil {
			return err
		}
		return st.CreditPool(ctx, writerID, payload.Amount)
	}
	return nil
}
