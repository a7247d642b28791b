package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/store"
)

const writerID = "engine"

func newFoldStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New("owner", "")
	if err := st.Authorize("owner", writerID); err != nil {
		t.Fatalf("authorize writer: %v", err)
	}
	return st
}

func TestApplyRegisteredStoresOracle(t *testing.T) {
	ctx := context.Background()
	st := newFoldStore(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	evt := event.Event{
		Type:        event.TypeOracleRegistered,
		Timestamp:   ts,
		PayloadJSON: []byte(`{"oracle_id":"o1","fee":1000000,"indexes":[4,5,1]}`),
	}
	if err := Apply(ctx, st, writerID, evt); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rec, err := st.GetOracle(ctx, "o1")
	if err != nil {
		t.Fatalf("get oracle: %v", err)
	}
	if rec.Indexes != [3]uint8{4, 5, 1} {
		t.Fatalf("indexes = %v, want [4 5 1]", rec.Indexes)
	}
	pool, err := st.PoolBalance(ctx)
	if err != nil {
		t.Fatalf("pool balance: %v", err)
	}
	if pool != RegistrationFee {
		t.Fatalf("pool = %d, want %d", pool, RegistrationFee)
	}
}

func TestApplyRequestedOpensRequest(t *testing.T) {
	ctx := context.Background()
	st := newFoldStore(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	evt := event.Event{
		Type:        event.TypeOracleRequested,
		Timestamp:   ts,
		PayloadJSON: []byte(`{"flight_key":"f1","index":7}`),
	}
	if err := Apply(ctx, st, writerID, evt); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rec, err := st.GetRequest(ctx, "f1")
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if rec.Index != 7 || rec.Finalized {
		t.Fatalf("request = %+v", rec)
	}
}

func TestApplyReportedAccumulatesAndFinalizes(t *testing.T) {
	ctx := context.Background()
	st := newFoldStore(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	requested := event.Event{
		Type:        event.TypeOracleRequested,
		Timestamp:   ts,
		PayloadJSON: []byte(`{"flight_key":"f1","index":7}`),
	}
	if err := Apply(ctx, st, writerID, requested); err != nil {
		t.Fatalf("apply requested: %v", err)
	}

	for i, oracleID := range []string{"o1", "o2", "o3"} {
		reported := event.Event{
			Type:        event.TypeOracleReported,
			Timestamp:   ts.Add(time.Duration(i+1) * time.Minute),
			PayloadJSON: []byte(`{"flight_key":"f1","index":7,"status":20,"oracle_id":"` + oracleID + `"}`),
		}
		if err := Apply(ctx, st, writerID, reported); err != nil {
			t.Fatalf("apply reported %s: %v", oracleID, err)
		}
	}

	rec, err := st.GetRequest(ctx, "f1")
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if rec.SupportFor(store.FlightStatusLateAirline) != Quorum {
		t.Fatalf("support = %d, want %d", rec.SupportFor(store.FlightStatusLateAirline), Quorum)
	}
	if !rec.Finalized {
		t.Fatal("request not finalized at quorum")
	}
}

func TestApplyReportedIgnoresDuplicateResponder(t *testing.T) {
	ctx := context.Background()
	st := newFoldStore(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	requested := event.Event{
		Type:        event.TypeOracleRequested,
		Timestamp:   ts,
		PayloadJSON: []byte(`{"flight_key":"f1","index":7}`),
	}
	if err := Apply(ctx, st, writerID, requested); err != nil {
		t.Fatalf("apply requested: %v", err)
	}
	reported := event.Event{
		Type:        event.TypeOracleReported,
		Timestamp:   ts.Add(time.Minute),
		PayloadJSON: []byte(`{"flight_key":"f1","index":7,"status":20,"oracle_id":"o1"}`),
	}
	if err := Apply(ctx, st, writerID, reported); err != nil {
		t.Fatalf("apply reported: %v", err)
	}
	if err := Apply(ctx, st, writerID, reported); err != nil {
		t.Fatalf("apply duplicate reported: %v", err)
	}

	rec, err := st.GetRequest(ctx, "f1")
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if rec.SupportFor(store.FlightStatusLateAirline) != 1 {
		t.Fatalf("support = %d, want 1", rec.SupportFor(store.FlightStatusLateAirline))
	}
}
