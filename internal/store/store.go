// Package store is the single source of truth for ledger entities.
//
// The store is deliberately dumb: it persists entities and enforces two
// gates — the process-wide operational flag and the authorized-caller
// allow-list — and nothing else. Business validation lives in the logic
// components, which may be replaced by re-pointing the allow-list without
// migrating persisted entities.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/skysurety/skysurety/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrNotOperational indicates the kill-switch is off.
var ErrNotOperational = apperrors.New(apperrors.CodeNotOperational, "store is not operational")

// ErrUnauthorized indicates the caller is not on the allow-list.
var ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized, "caller is not authorized")

// ErrNotOwner indicates an owner-only operation from a non-owner.
var ErrNotOwner = apperrors.New(apperrors.CodeNotOwner, "caller is not the store owner")

// ErrInsufficientPool indicates a debit larger than the escrow pool.
var ErrInsufficientPool = apperrors.New(apperrors.CodeInsufficientFunds, "escrow pool balance too low")

// Store owns all persisted ledger entities behind the operational and
// authorization gates.
type Store struct {
	mu sync.RWMutex

	ownerID     string
	operational bool
	authorized  map[string]bool

	airlines map[string]AirlineRecord
	flights  map[string]FlightRecord
	// policies is keyed by flight key, then passenger id.
	policies map[string]map[string]PolicyRecord
	credits  map[string]uint64
	oracles  map[string]OracleRecord
	requests map[string]RequestRecord

	// pool is the collective escrow balance backing payouts.
	pool uint64
}

// New creates an operational store owned by ownerID, seeded with the
// genesis airline in Registered status.
func New(ownerID, firstAirlineID string) *Store {
	s := &Store{
		ownerID:     strings.TrimSpace(ownerID),
		operational: true,
		authorized:  make(map[string]bool),
		airlines:    make(map[string]AirlineRecord),
		flights:     make(map[string]FlightRecord),
		policies:    make(map[string]map[string]PolicyRecord),
		credits:     make(map[string]uint64),
		oracles:     make(map[string]OracleRecord),
		requests:    make(map[string]RequestRecord),
	}
	firstAirlineID = strings.TrimSpace(firstAirlineID)
	if firstAirlineID != "" {
		now := time.Now().UTC()
		s.airlines[firstAirlineID] = AirlineRecord{
			ID:        firstAirlineID,
			Status:    AirlineRegistered,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return s
}

// guardRead enforces the operational gate for reads.
// Checked before authorization everywhere so operators can diagnose lockout.
func (s *Store) guardRead() error {
	if !s.operational {
		return ErrNotOperational
	}
	return nil
}

// guardWrite enforces operational-then-authorization for mutations.
func (s *Store) guardWrite(callerID string) error {
	if !s.operational {
		return ErrNotOperational
	}
	if !s.authorized[callerID] {
		return ErrUnauthorized
	}
	return nil
}

// Owner returns the store owner identity.
func (s *Store) Owner() string {
	return s.ownerID
}

// IsOperational reports the kill-switch state. Never gated.
func (s *Store) IsOperational() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operational
}

// SetOperational flips the kill-switch. Owner-only and deliberately not
// gated by the flag itself, otherwise the owner could never recover.
func (s *Store) SetOperational(callerID string, operational bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callerID != s.ownerID {
		return ErrNotOwner
	}
	s.operational = operational
	return nil
}

// Authorize adds a caller to the mutation allow-list. Owner-only.
// Has no effect on already-persisted entities.
func (s *Store) Authorize(callerID, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callerID != s.ownerID {
		return ErrNotOwner
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return apperrors.New(apperrors.CodeInvalidCommand, "authorized caller id is required")
	}
	s.authorized[target] = true
	return nil
}

// Deauthorize removes a caller from the mutation allow-list. Owner-only.
func (s *Store) Deauthorize(callerID, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callerID != s.ownerID {
		return ErrNotOwner
	}
	delete(s.authorized, strings.TrimSpace(target))
	return nil
}

// Authorized reports whether the caller is on the allow-list.
func (s *Store) Authorized(callerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authorized[callerID]
}

// AuthorizedCallers returns the allow-list in stable order.
func (s *Store) AuthorizedCallers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	callers := make([]string, 0, len(s.authorized))
	for id := range s.authorized {
		callers = append(callers, id)
	}
	sort.Strings(callers)
	return callers
}

// PutAirline creates or replaces an airline record.
func (s *Store) PutAirline(ctx context.Context, callerID string, rec AirlineRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardWrite(callerID); err != nil {
		return err
	}
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.ID == "" {
		return apperrors.New(apperrors.CodeInvalidCommand, "airline id is required")
	}
	s.airlines[rec.ID] = cloneAirline(rec)
	return nil
}

// GetAirline returns one airline record by identity.
func (s *Store) GetAirline(ctx context.Context, airlineID string) (AirlineRecord, error) {
	if err := ctx.Err(); err != nil {
		return AirlineRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return AirlineRecord{}, err
	}
	rec, ok := s.airlines[airlineID]
	if !ok {
		return AirlineRecord{}, ErrNotFound
	}
	return cloneAirline(rec), nil
}

// ListAirlines returns all airline records in stable identity order.
func (s *Store) ListAirlines(ctx context.Context) ([]AirlineRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return nil, err
	}
	records := make([]AirlineRecord, 0, len(s.airlines))
	for _, rec := range s.airlines {
		records = append(records, cloneAirline(rec))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// CountAirlines returns how many airlines currently hold any of the statuses.
func (s *Store) CountAirlines(ctx context.Context, statuses ...AirlineStatus) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return 0, err
	}
	count := 0
	for _, rec := range s.airlines {
		for _, status := range statuses {
			if rec.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

// PutFlight creates or replaces a flight record.
func (s *Store) PutFlight(ctx context.Context, callerID string, rec FlightRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardWrite(callerID); err != nil {
		return err
	}
	rec.Key = strings.TrimSpace(rec.Key)
	if rec.Key == "" {
		return apperrors.New(apperrors.CodeInvalidCommand, "flight key is required")
	}
	s.flights[rec.Key] = rec
	return nil
}

// GetFlight returns one flight record by key.
func (s *Store) GetFlight(ctx context.Context, flightKey string) (FlightRecord, error) {
	if err := ctx.Err(); err != nil {
		return FlightRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return FlightRecord{}, err
	}
	rec, ok := s.flights[flightKey]
	if !ok {
		return FlightRecord{}, ErrNotFound
	}
	return rec, nil
}

// ListFlights returns all flight records in stable key order.
func (s *Store) ListFlights(ctx context.Context) ([]FlightRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return nil, err
	}
	records := make([]FlightRecord, 0, len(s.flights))
	for _, rec := range s.flights {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

// PutPolicy creates or replaces a policy record.
func (s *Store) PutPolicy(ctx context.Context, callerID string, rec PolicyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardWrite(callerID); err != nil {
		return err
	}
	rec.FlightKey = strings.TrimSpace(rec.FlightKey)
	rec.PassengerID = strings.TrimSpace(rec.PassengerID)
	if rec.FlightKey == "" || rec.PassengerID == "" {
		return apperrors.New(apperrors.CodeInvalidCommand, "policy flight key and passenger id are required")
	}
	byPassenger, ok := s.policies[rec.FlightKey]
	if !ok {
		byPassenger = make(map[string]PolicyRecord)
		s.policies[rec.FlightKey] = byPassenger
	}
	byPassenger[rec.PassengerID] = rec
	return nil
}

// GetPolicy returns one policy by flight key and passenger identity.
func (s *Store) GetPolicy(ctx context.Context, flightKey, passengerID string) (PolicyRecord, error) {
	if err := ctx.Err(); err != nil {
		return PolicyRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return PolicyRecord{}, err
	}
	rec, ok := s.policies[flightKey][passengerID]
	if !ok {
		return PolicyRecord{}, ErrNotFound
	}
	return rec, nil
}

// ListPoliciesByFlight returns all policies for a flight in passenger order.
func (s *Store) ListPoliciesByFlight(ctx context.Context, flightKey string) ([]PolicyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return nil, err
	}
	byPassenger := s.policies[flightKey]
	records := make([]PolicyRecord, 0, len(byPassenger))
	for _, rec := range byPassenger {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].PassengerID < records[j].PassengerID })
	return records, nil
}

// ListPoliciesByPassenger returns all of one passenger's policies in key order.
func (s *Store) ListPoliciesByPassenger(ctx context.Context, passengerID string) ([]PolicyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return nil, err
	}
	var records []PolicyRecord
	for _, byPassenger := range s.policies {
		if rec, ok := byPassenger[passengerID]; ok {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].FlightKey < records[j].FlightKey })
	return records, nil
}

// CreditBalance returns a passenger's accumulated withdrawable amount.
func (s *Store) CreditBalance(ctx context.Context, passengerID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return 0, err
	}
	return s.credits[passengerID], nil
}

// PutCreditBalance sets a passenger's withdrawable amount.
func (s *Store) PutCreditBalance(ctx context.Context, callerID, passengerID string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardWrite(callerID); err != nil {
		return err
	}
	passengerID = strings.TrimSpace(passengerID)
	if passengerID == "" {
		return apperrors.New(apperrors.CodeInvalidCommand, "passenger id is required")
	}
	if amount == 0 {
		delete(s.credits, passengerID)
		return nil
	}
	s.credits[passengerID] = amount
	return nil
}

// PutOracle creates or replaces an oracle record.
func (s *Store) PutOracle(ctx context.Context, callerID string, rec OracleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardWrite(callerID); err != nil {
		return err
	}
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.ID == "" {
		return apperrors.New(apperrors.CodeInvalidCommand, "oracle id is required")
	}
	s.oracles[rec.ID] = rec
	return nil
}

// GetOracle returns one oracle record by identity.
func (s *Store) GetOracle(ctx context.Context, oracleID string) (OracleRecord, error) {
	if err := ctx.Err(); err != nil {
		return OracleRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return OracleRecord{}, err
	}
	rec, ok := s.oracles[oracleID]
	if !ok {
		return OracleRecord{}, ErrNotFound
	}
	return rec, nil
}

// PutRequest creates or replaces a status request record.
func (s *Store) PutRequest(ctx context.Context, callerID string, rec RequestRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardWrite(callerID); err != nil {
		return err
	}
	rec.FlightKey = strings.TrimSpace(rec.FlightKey)
	if rec.FlightKey == "" {
		return apperrors.New(apperrors.CodeInvalidCommand, "request flight key is required")
	}
	s.requests[rec.FlightKey] = cloneRequest(rec)
	return nil
}

// GetRequest returns the status request for a flight key.
func (s *Store) GetRequest(ctx context.Context, flightKey string) (RequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return RequestRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return RequestRecord{}, err
	}
	rec, ok := s.requests[flightKey]
	if !ok {
		return RequestRecord{}, ErrNotFound
	}
	return cloneRequest(rec), nil
}

// PoolBalance returns the collective escrow pool balance.
func (s *Store) PoolBalance(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.guardRead(); err != nil {
		return 0, err
	}
	return s.pool, nil
}

// CreditPool adds escrowed funds to the pool.
func (s *Store) CreditPool(ctx context.Context, callerID string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardWrite(callerID); err != nil {
		return err
	}
	s.pool += amount
	return nil
}

// DebitPool removes funds from the pool, rejecting overdrafts.
func (s *Store) DebitPool(ctx context.Context, callerID string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardWrite(callerID); err != nil {
		return err
	}
	if amount > s.pool {
		return ErrInsufficientPool
	}
	s.pool -= amount
	return nil
}
