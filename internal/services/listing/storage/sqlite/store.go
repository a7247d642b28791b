// Package sqlite provides a SQLite-backed listing storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/skysurety/skysurety/internal/platform/storage/sqlitemigrate"
	"github.com/skysurety/skysurety/internal/services/listing/storage"
	"github.com/skysurety/skysurety/internal/services/listing/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists flight listings in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite listing store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// UpsertFlight inserts or replaces one listing row keyed by flight key.
func (s *Store) UpsertFlight(ctx context.Context, listing storage.FlightListing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	flightKey := strings.TrimSpace(listing.FlightKey)
	airlineID := strings.TrimSpace(listing.AirlineID)
	name := strings.TrimSpace(listing.Name)
	if flightKey == "" {
		return fmt.Errorf("flight key is required")
	}
	if airlineID == "" {
		return fmt.Errorf("airline id is required")
	}
	if name == "" {
		return fmt.Errorf("name is required")
	}
	createdAt := listing.CreatedAt.UTC()
	updatedAt := listing.UpdatedAt.UTC()
	if createdAt.IsZero() && updatedAt.IsZero() {
		createdAt = time.Now().UTC()
		updatedAt = createdAt
	} else {
		if createdAt.IsZero() {
			createdAt = updatedAt
		}
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO flight_listings (
		   flight_key,
		   airline_id,
		   name,
		   departs_at,
		   status,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(flight_key) DO UPDATE SET
		   status = excluded.status,
		   updated_at = excluded.updated_at`,
		flightKey,
		airlineID,
		name,
		toMillis(listing.DepartsAt),
		listing.Status,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert flight listing: %w", err)
	}
	return nil
}

// GetFlight returns one listing by flight key.
func (s *Store) GetFlight(ctx context.Context, flightKey string) (storage.FlightListing, error) {
	if err := ctx.Err(); err != nil {
		return storage.FlightListing{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.FlightListing{}, fmt.Errorf("storage is not configured")
	}
	flightKey = strings.TrimSpace(flightKey)
	if flightKey == "" {
		return storage.FlightListing{}, fmt.Errorf("flight key is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT flight_key, airline_id, name, departs_at, status, created_at, updated_at
		   FROM flight_listings
		  WHERE flight_key = ?`,
		flightKey,
	)

	listing, err := scanFlight(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.FlightListing{}, storage.ErrNotFound
		}
		return storage.FlightListing{}, fmt.Errorf("get flight listing: %w", err)
	}
	return listing, nil
}

// ListFlights returns all listings ordered by departure time, then key.
func (s *Store) ListFlights(ctx context.Context) ([]storage.FlightListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT flight_key, airline_id, name, departs_at, status, created_at, updated_at
		   FROM flight_listings
		  ORDER BY departs_at ASC, flight_key ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list flight listings: %w", err)
	}
	defer rows.Close()

	listings := make([]storage.FlightListing, 0)
	for rows.Next() {
		listing, err := scanFlight(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list flight listings: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flight listings: %w", err)
	}
	return listings, nil
}

func scanFlight(scan func(dest ...any) error) (storage.FlightListing, error) {
	var listing storage.FlightListing
	var departsAt int64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&listing.FlightKey,
		&listing.AirlineID,
		&listing.Name,
		&departsAt,
		&listing.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.FlightListing{}, err
	}
	listing.DepartsAt = fromMillis(departsAt)
	listing.CreatedAt = fromMillis(createdAt)
	listing.UpdatedAt = fromMillis(updatedAt)
	return listing, nil
}
