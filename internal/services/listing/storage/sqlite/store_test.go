package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/skysurety/skysurety/internal/services/listing/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestUpsertGetFlightRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	input := storage.FlightListing{
		FlightKey: "key-1",
		AirlineID: "airline-1",
		Name:      "SS-101",
		DepartsAt: now.Add(48 * time.Hour),
		Status:    0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.UpsertFlight(context.Background(), input); err != nil {
		t.Fatalf("upsert flight: %v", err)
	}

	got, err := store.GetFlight(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("get flight: %v", err)
	}
	if got.FlightKey != input.FlightKey {
		t.Fatalf("flight_key = %q, want %q", got.FlightKey, input.FlightKey)
	}
	if got.AirlineID != input.AirlineID {
		t.Fatalf("airline_id = %q, want %q", got.AirlineID, input.AirlineID)
	}
	if !got.DepartsAt.Equal(input.DepartsAt) {
		t.Fatalf("departs_at = %v, want %v", got.DepartsAt, input.DepartsAt)
	}
}

func TestUpsertFlightUpdatesStatus(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	input := storage.FlightListing{
		FlightKey: "key-status",
		AirlineID: "airline-1",
		Name:      "SS-202",
		DepartsAt: now.Add(24 * time.Hour),
		Status:    0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.UpsertFlight(context.Background(), input); err != nil {
		t.Fatalf("upsert initial flight: %v", err)
	}

	input.Status = 20
	input.UpdatedAt = now.Add(time.Hour)
	if err := store.UpsertFlight(context.Background(), input); err != nil {
		t.Fatalf("upsert updated flight: %v", err)
	}

	got, err := store.GetFlight(context.Background(), "key-status")
	if err != nil {
		t.Fatalf("get flight: %v", err)
	}
	if got.Status != 20 {
		t.Fatalf("status = %d, want 20", got.Status)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}
	if !got.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("updated_at = %v, want %v", got.UpdatedAt, now.Add(time.Hour))
	}
}

func TestGetFlightReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.GetFlight(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing flight error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListFlightsOrdersByDeparture(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 11, 0, 0, 0, time.UTC)
	flights := []storage.FlightListing{
		{FlightKey: "key-late", AirlineID: "airline-1", Name: "SS-303", DepartsAt: now.Add(72 * time.Hour), CreatedAt: now, UpdatedAt: now},
		{FlightKey: "key-early", AirlineID: "airline-2", Name: "SS-404", DepartsAt: now.Add(12 * time.Hour), CreatedAt: now, UpdatedAt: now},
	}
	for _, flight := range flights {
		if err := store.UpsertFlight(context.Background(), flight); err != nil {
			t.Fatalf("upsert flight %s: %v", flight.FlightKey, err)
		}
	}

	listed, err := store.ListFlights(context.Background())
	if err != nil {
		t.Fatalf("list flights: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d flights, want 2", len(listed))
	}
	if listed[0].FlightKey != "key-early" || listed[1].FlightKey != "key-late" {
		t.Fatalf("listed order = [%s %s], want [key-early key-late]", listed[0].FlightKey, listed[1].FlightKey)
	}
}

func TestUpsertFlightValidatesInput(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.UpsertFlight(context.Background(), storage.FlightListing{AirlineID: "a", Name: "n"}); err == nil {
		t.Fatal("expected missing flight key error")
	}
	if err := store.UpsertFlight(context.Background(), storage.FlightListing{FlightKey: "k", Name: "n"}); err == nil {
		t.Fatal("expected missing airline id error")
	}
	if err := store.UpsertFlight(context.Background(), storage.FlightListing{FlightKey: "k", AirlineID: "a"}); err == nil {
		t.Fatal("expected missing name error")
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "listing.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
