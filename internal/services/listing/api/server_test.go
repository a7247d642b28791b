package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skysurety/skysurety/internal/services/listing/storage"
)

type stubStorage struct {
	flights map[string]storage.FlightListing
}

func (s *stubStorage) UpsertFlight(_ context.Context, listing storage.FlightListing) error {
	s.flights[listing.FlightKey] = listing
	return nil
}

func (s *stubStorage) ListFlights(_ context.Context) ([]storage.FlightListing, error) {
	listings := make([]storage.FlightListing, 0, len(s.flights))
	for _, listing := range s.flights {
		listings = append(listings, listing)
	}
	return listings, nil
}

func (s *stubStorage) GetFlight(_ context.Context, flightKey string) (storage.FlightListing, error) {
	listing, ok := s.flights[flightKey]
	if !ok {
		return storage.FlightListing{}, storage.ErrNotFound
	}
	return listing, nil
}

func newStubStorage() *stubStorage {
	return &stubStorage{flights: make(map[string]storage.FlightListing)}
}

func TestHealthz(t *testing.T) {
	router := NewService(newStubStorage()).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestListFlights(t *testing.T) {
	store := newStubStorage()
	now := time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)
	_ = store.UpsertFlight(context.Background(), storage.FlightListing{
		FlightKey: "key-1",
		AirlineID: "airline-1",
		Name:      "SS-101",
		DepartsAt: now,
		Status:    20,
		UpdatedAt: now,
	})
	router := NewService(store).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/flights", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		Flights []flightResponse `json:"flights"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode list body: %v", err)
	}
	if len(body.Flights) != 1 {
		t.Fatalf("listed %d flights, want 1", len(body.Flights))
	}
	if body.Flights[0].FlightKey != "key-1" || body.Flights[0].Status != 20 {
		t.Fatalf("unexpected flight row: %+v", body.Flights[0])
	}
}

func TestGetFlightNotFound(t *testing.T) {
	router := NewService(newStubStorage()).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/flights/missing", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetFlightReturnsRow(t *testing.T) {
	store := newStubStorage()
	now := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
	_ = store.UpsertFlight(context.Background(), storage.FlightListing{
		FlightKey: "key-2",
		AirlineID: "airline-2",
		Name:      "SS-202",
		DepartsAt: now,
		UpdatedAt: now,
	})
	router := NewService(store).Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/flights/key-2", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got flightResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode flight body: %v", err)
	}
	if got.Name != "SS-202" {
		t.Fatalf("name = %q, want %q", got.Name, "SS-202")
	}
}
