// Package projection materializes ledger events into the listing read model.
package projection

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/skysurety/skysurety/internal/domain/flight"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/services/listing/storage"
)

const writeTimeout = 5 * time.Second

// FlightWriter folds flight events into a listing FlightStorage. Projection
// failures are logged, never propagated: the ledger is the source of truth
// and the read model can be rebuilt from it.
type FlightWriter struct {
	store storage.FlightStorage
}

// NewFlightWriter creates a projection writer over the listing storage.
func NewFlightWriter(store storage.FlightStorage) *FlightWriter {
	return &FlightWriter{store: store}
}

// Handle consumes one journal event; wire it to engine.Subscribe.
func (w *FlightWriter) Handle(evt event.Event) {
	if w == nil || w.store == nil {
		return
	}
	switch evt.Type {
	case event.TypeFlightRegistered:
		w.applyRegistered(evt)
	case event.TypeFlightStatusFinalized:
		w.applyFinalized(evt)
	}
}

func (w *FlightWriter) applyRegistered(evt event.Event) {
	var payload flight.RegisterPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		log.Printf("projection: decode flight.registered: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err := w.store.UpsertFlight(ctx, storage.FlightListing{
		FlightKey: payload.FlightKey,
		AirlineID: payload.AirlineID,
		Name:      payload.Name,
		DepartsAt: time.Unix(payload.DepartsAt, 0).UTC(),
		Status:    0,
		CreatedAt: evt.Timestamp,
		UpdatedAt: evt.Timestamp,
	})
	if err != nil {
		log.Printf("projection: upsert flight %s: %v", payload.FlightKey, err)
	}
}

func (w *FlightWriter) applyFinalized(evt event.Event) {
	var payload flight.StatusFinalizedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		log.Printf("projection: decode flight.status_finalized: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	existing, err := w.store.GetFlight(ctx, payload.FlightKey)
	if err != nil {
		log.Printf("projection: load flight %s: %v", payload.FlightKey, err)
		return
	}
	existing.Status = payload.Status
	existing.UpdatedAt = evt.Timestamp
	if err := w.store.UpsertFlight(ctx, existing); err != nil {
		log.Printf("projection: finalize flight %s: %v", payload.FlightKey, err)
	}
}
