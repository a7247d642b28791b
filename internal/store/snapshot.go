package store

// Snapshot is a deep copy of all mutable store state, used by the engine
// to restore the store when applying a decision fails part-way.
type Snapshot struct {
	operational bool
	authorized  map[string]bool
	airlines    map[string]AirlineRecord
	flights     map[string]FlightRecord
	policies    map[string]map[string]PolicyRecord
	credits     map[string]uint64
	oracles     map[string]OracleRecord
	requests    map[string]RequestRecord
	pool        uint64
}

// Snapshot captures the full store state. Not gated: the engine snapshots
// before every decision regardless of the operational flag.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		operational: s.operational,
		authorized:  make(map[string]bool, len(s.authorized)),
		airlines:    make(map[string]AirlineRecord, len(s.airlines)),
		flights:     make(map[string]FlightRecord, len(s.flights)),
		policies:    make(map[string]map[string]PolicyRecord, len(s.policies)),
		credits:     make(map[string]uint64, len(s.credits)),
		oracles:     make(map[string]OracleRecord, len(s.oracles)),
		requests:    make(map[string]RequestRecord, len(s.requests)),
		pool:        s.pool,
	}
	for id := range s.authorized {
		snap.authorized[id] = true
	}
	for id, rec := range s.airlines {
		snap.airlines[id] = cloneAirline(rec)
	}
	for key, rec := range s.flights {
		snap.flights[key] = rec
	}
	for key, byPassenger := range s.policies {
		inner := make(map[string]PolicyRecord, len(byPassenger))
		for id, rec := range byPassenger {
			inner[id] = rec
		}
		snap.policies[key] = inner
	}
	for id, amount := range s.credits {
		snap.credits[id] = amount
	}
	for id, rec := range s.oracles {
		snap.oracles[id] = rec
	}
	for key, rec := range s.requests {
		snap.requests[key] = cloneRequest(rec)
	}
	return snap
}

// Restore replaces the store state with a previously captured snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.operational = snap.operational
	s.authorized = make(map[string]bool, len(snap.authorized))
	for id := range snap.authorized {
		s.authorized[id] = true
	}
	s.airlines = make(map[string]AirlineRecord, len(snap.airlines))
	for id, rec := range snap.airlines {
		s.airlines[id] = cloneAirline(rec)
	}
	s.flights = make(map[string]FlightRecord, len(snap.flights))
	for key, rec := range snap.flights {
		s.flights[key] = rec
	}
	s.policies = make(map[string]map[string]PolicyRecord, len(snap.policies))
	for key, byPassenger := range snap.policies {
		inner := make(map[string]PolicyRecord, len(byPassenger))
		for id, rec := range byPassenger {
			inner[id] = rec
		}
		s.policies[key] = inner
	}
	s.credits = make(map[string]uint64, len(snap.credits))
	for id, amount := range snap.credits {
		s.credits[id] = amount
	}
	s.oracles = make(map[string]OracleRecord, len(snap.oracles))
	for id, rec := range snap.oracles {
		s.oracles[id] = rec
	}
	s.requests = make(map[string]RequestRecord, len(snap.requests))
	for key, rec := range snap.requests {
		s.requests[key] = cloneRequest(rec)
	}
	s.pool = snap.pool
}
