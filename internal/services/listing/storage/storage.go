// Package storage defines the listing service's read-model contracts.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that no listing matches the requested key.
var ErrNotFound = errors.New("listing not found")

// FlightListing is one row of the flight read model. It mirrors the ledger's
// flight records but carries no business rules; the listing service only
// materializes and serves it.
type FlightListing struct {
	FlightKey string
	AirlineID string
	Name      string
	DepartsAt time.Time
	Status    uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FlightStorage persists and queries flight listings.
type FlightStorage interface {
	// UpsertFlight inserts or replaces a listing row by flight key.
	UpsertFlight(ctx context.Context, listing FlightListing) error
	// ListFlights returns all listings ordered by departure time.
	ListFlights(ctx context.Context) ([]FlightListing, error)
	// GetFlight returns one listing by flight key.
	GetFlight(ctx context.Context, flightKey string) (FlightListing, error)
}
