// Package sqlite provides a SQLite-backed journal implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/ledger/journal"
	"github.com/skysurety/skysurety/internal/ledger/journal/sqlite/migrations"
	"github.com/skysurety/skysurety/internal/platform/storage/sqlitemigrate"
)

// Store persists the event journal in SQLite.
//
// Appends are serialized by a mutex because the hash chain makes each entry
// depend on its predecessor.
type Store struct {
	mu       sync.Mutex
	sqlDB    *sql.DB
	registry *event.Registry
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal store and applies embedded migrations.
func Open(path string, registry *event.Registry) (*Store, error) {
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
	return &Store{sqlDB: sqlDB, registry: registry}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append validates the event, assigns Seq and hashes, and inserts it.
func (s *Store) Append(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	if s.registry != nil {
		validated, err := s.registry.ValidateForAppend(evt)
		if err != nil {
			return event.Event{}, err
		}
		evt = validated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var lastSeq uint64
	var lastChain string
	row := s.sqlDB.QueryRowContext(ctx, `SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1`)
	if err := row.Scan(&lastSeq, &lastChain); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("read journal head: %w", err)
	}

	sealed, err := journal.Seal(evt, lastSeq+1, lastChain)
	if err != nil {
		return event.Event{}, err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO events (
		   seq, hash, prev_hash, chain_hash,
		   event_type, timestamp, caller_id, request_id,
		   entity_type, entity_id, payload_json
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sealed.Seq,
		sealed.Hash,
		sealed.PrevHash,
		sealed.ChainHash,
		string(sealed.Type),
		toMillis(sealed.Timestamp),
		sealed.CallerID,
		sealed.RequestID,
		sealed.EntityType,
		sealed.EntityID,
		string(sealed.PayloadJSON),
	)
	if err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	return sealed, nil
}

// ListEvents returns up to limit events with Seq > afterSeq, in order.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT seq, hash, prev_hash, chain_hash,
		        event_type, timestamp, caller_id, request_id,
		        entity_type, entity_id, payload_json
		   FROM events
		  WHERE seq > ?
		  ORDER BY seq ASC
		  LIMIT ?`,
		afterSeq,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var evt event.Event
		var eventType string
		var timestamp int64
		var payload string
		if err := rows.Scan(
			&evt.Seq,
			&evt.Hash,
			&evt.PrevHash,
			&evt.ChainHash,
			&eventType,
			&timestamp,
			&evt.CallerID,
			&evt.RequestID,
			&evt.EntityType,
			&evt.EntityID,
			&payload,
		); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		evt.Type = event.Type(eventType)
		evt.Timestamp = fromMillis(timestamp)
		evt.PayloadJSON = []byte(payload)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// LastChainHash returns the newest entry's chain hash, or "" when empty.
func (s *Store) LastChainHash(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	var chain string
	row := s.sqlDB.QueryRowContext(ctx, `SELECT chain_hash FROM events ORDER BY seq DESC LIMIT 1`)
	if err := row.Scan(&chain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read journal head: %w", err)
	}
	return chain, nil
}

var _ journal.Journal = (*Store)(nil)
