package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/skysurety/skysurety/internal/domain/airline"
	"github.com/skysurety/skysurety/internal/domain/flight"
	"github.com/skysurety/skysurety/internal/domain/insurance"
	"github.com/skysurety/skysurety/internal/domain/ops"
	"github.com/skysurety/skysurety/internal/domain/oracle"
	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/ledger/journal"
	apperrors "github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/store"
)

const (
	ownerID  = "owner"
	writerID = "engine"
	genesis  = "airline-1"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	st := store.New(ownerID, genesis)
	if err := st.Authorize(ownerID, writerID); err != nil {
		t.Fatalf("authorize writer: %v", err)
	}

	commands := command.NewRegistry()
	events := event.NewRegistry()
	log := journal.NewMemory(events)

	airlines := airline.Module{}
	flights := flight.Module{}
	policies := insurance.Module{}
	oracles := oracle.Module{Entropy: log.LastChainHash}
	operations := ops.Module{}

	modules := []Module{airlines, flights, policies, oracles, operations}
	for _, register := range []func(*command.Registry, *event.Registry) error{
		airlines.Register, flights.Register, policies.Register,
		oracles.Register, operations.Register,
	} {
		if err := register(commands, events); err != nil {
			t.Fatalf("register module: %v", err)
		}
	}

	h, err := New(Config{
		Commands: commands,
		Events:   events,
		Journal:  log,
		Store:    st,
		WriterID: writerID,
		Modules:  modules,
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func execute(t *testing.T, h *Handler, cmdType command.Type, caller string, payload any) command.Decision {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	decision, err := h.Execute(context.Background(), command.Command{
		Type:        cmdType,
		CallerID:    caller,
		PayloadJSON: raw,
	})
	if err != nil {
		t.Fatalf("execute %s: %v", cmdType, err)
	}
	if err := decision.Err(); err != nil {
		t.Fatalf("execute %s rejected: %v", cmdType, err)
	}
	return decision
}

func executeExpectCode(t *testing.T, h *Handler, cmdType command.Type, caller string, payload any, want apperrors.Code) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	decision, err := h.Execute(context.Background(), command.Command{
		Type:        cmdType,
		CallerID:    caller,
		PayloadJSON: raw,
	})
	if err != nil {
		if got := apperrors.CodeOf(err); got != want {
			t.Fatalf("execute %s error code = %v, want %v (err %v)", cmdType, got, want, err)
		}
		return
	}
	rejErr := decision.Err()
	if rejErr == nil {
		t.Fatalf("execute %s accepted, want rejection %v", cmdType, want)
	}
	if got := apperrors.CodeOf(rejErr); got != want {
		t.Fatalf("execute %s rejection code = %v, want %v", cmdType, got, want)
	}
}

// fundGenesis takes the seeded airline through funding.
func fundGenesis(t *testing.T, h *Handler) {
	t.Helper()
	execute(t, h, airline.CommandTypeFund, genesis, airline.FundPayload{Amount: airline.FundingThreshold})
}

func registerFlight(t *testing.T, h *Handler, name string, departsAt time.Time) string {
	t.Helper()
	decision := execute(t, h, flight.CommandTypeRegister, genesis, flight.RegisterPayload{
		Name:      name,
		DepartsAt: departsAt.Unix(),
	})
	var payload flight.RegisterPayload
	if err := json.Unmarshal(decision.Events[0].PayloadJSON, &payload); err != nil {
		t.Fatalf("unmarshal flight payload: %v", err)
	}
	return payload.FlightKey
}

// registerMatchingOracles registers oracle identities until three hold the
// request's index, then returns those three.
func registerMatchingOracles(t *testing.T, h *Handler, index uint8) []string {
	t.Helper()
	ctx := context.Background()
	var holders []string
	for i := 0; len(holders) < 3 && i < 200; i++ {
		id := fmt.Sprintf("oracle-%03d", i)
		execute(t, h, oracle.CommandTypeRegister, id, oracle.RegisterPayload{Fee: oracle.RegistrationFee})
		rec, err := h.Store().GetOracle(ctx, id)
		if err != nil {
			t.Fatalf("get oracle %s: %v", id, err)
		}
		if rec.HoldsIndex(index) {
			holders = append(holders, id)
		}
	}
	if len(holders) < 3 {
		t.Fatalf("could not register three oracles holding index %d", index)
	}
	return holders
}

func TestExecuteEndToEndPayout(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t)

	fundGenesis(t, h)
	flightKey := registerFlight(t, h, "SS1000", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC))

	execute(t, h, insurance.CommandTypeBuy, "passenger-1", insurance.BuyPayload{
		FlightKey: flightKey,
		Amount:    insurance.Cap,
	})

	decision := execute(t, h, oracle.CommandTypeRequest, "passenger-1", oracle.RequestPayload{FlightKey: flightKey})
	var request oracle.RequestPayload
	if err := json.Unmarshal(decision.Events[0].PayloadJSON, &request); err != nil {
		t.Fatalf("unmarshal request payload: %v", err)
	}

	holders := registerMatchingOracles(t, h, request.Index)
	for _, id := range holders {
		execute(t, h, oracle.CommandTypeReport, id, oracle.ReportPayload{
			FlightKey: flightKey,
			Index:     request.Index,
			Status:    uint(store.FlightStatusLateAirline),
		})
	}

	rec, err := h.Store().GetFlight(ctx, flightKey)
	if err != nil {
		t.Fatalf("get flight: %v", err)
	}
	if rec.Status != store.FlightStatusLateAirline {
		t.Fatalf("flight status = %v, want %v", rec.Status, store.FlightStatusLateAirline)
	}

	wantCredit := insurance.Payout(insurance.Cap)
	balance, err := h.Store().CreditBalance(ctx, "passenger-1")
	if err != nil {
		t.Fatalf("credit balance: %v", err)
	}
	if balance != wantCredit {
		t.Fatalf("balance = %d, want %d", balance, wantCredit)
	}

	execute(t, h, insurance.CommandTypeWithdraw, "passenger-1", insurance.WithdrawPayload{})
	balance, err = h.Store().CreditBalance(ctx, "passenger-1")
	if err != nil {
		t.Fatalf("credit balance after withdraw: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %d, want 0 after withdraw", balance)
	}

	// A second withdraw has nothing left to pull.
	executeExpectCode(t, h, insurance.CommandTypeWithdraw, "passenger-1", insurance.WithdrawPayload{}, apperrors.CodeNoCredit)
}

func TestExecuteTwoResponsesDoNotFinalize(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t)

	fundGenesis(t, h)
	flightKey := registerFlight(t, h, "SS1001", time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	execute(t, h, insurance.CommandTypeBuy, "passenger-1", insurance.BuyPayload{FlightKey: flightKey, Amount: insurance.Cap})

	decision := execute(t, h, oracle.CommandTypeRequest, "passenger-1", oracle.RequestPayload{FlightKey: flightKey})
	var request oracle.RequestPayload
	if err := json.Unmarshal(decision.Events[0].PayloadJSON, &request); err != nil {
		t.Fatalf("unmarshal request payload: %v", err)
	}

	holders := registerMatchingOracles(t, h, request.Index)
	for _, id := range holders[:2] {
		execute(t, h, oracle.CommandTypeReport, id, oracle.ReportPayload{
			FlightKey: flightKey,
			Index:     request.Index,
			Status:    uint(store.FlightStatusLateAirline),
		})
	}

	rec, err := h.Store().GetFlight(ctx, flightKey)
	if err != nil {
		t.Fatalf("get flight: %v", err)
	}
	if rec.Status != store.FlightStatusUnknown {
		t.Fatalf("flight status = %v, want Unknown below quorum", rec.Status)
	}
	balance, err := h.Store().CreditBalance(ctx, "passenger-1")
	if err != nil {
		t.Fatalf("credit balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %d, want 0 below quorum", balance)
	}
}

func TestExecuteDuplicateFlightRejected(t *testing.T) {
	h := newTestHandler(t)
	fundGenesis(t, h)

	departsAt := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	registerFlight(t, h, "SS1000", departsAt)
	executeExpectCode(t, h, flight.CommandTypeRegister, genesis, flight.RegisterPayload{
		Name:      "SS1000",
		DepartsAt: departsAt.Unix(),
	}, apperrors.CodeDuplicateFlight)
}

func TestExecuteOperationalGate(t *testing.T) {
	h := newTestHandler(t)
	fundGenesis(t, h)

	execute(t, h, ops.CommandTypeSetStatus, ownerID, ops.StatusPayload{Operational: false})

	executeExpectCode(t, h, flight.CommandTypeRegister, genesis, flight.RegisterPayload{
		Name:      "SS1000",
		DepartsAt: time.Now().Unix(),
	}, apperrors.CodeNotOperational)

	// Operations commands bypass the gate so the owner can recover.
	execute(t, h, ops.CommandTypeSetStatus, ownerID, ops.StatusPayload{Operational: true})
	registerFlight(t, h, "SS1000", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC))
}

func TestExecuteFifthAirlineNeedsVotes(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t)
	fundGenesis(t, h)

	// Admit and fund airlines 2 through 4 under the immediate rule.
	for _, id := range []string{"airline-2", "airline-3", "airline-4"} {
		execute(t, h, airline.CommandTypeRegister, genesis, airline.RegisterPayload{AirlineID: id})
		execute(t, h, airline.CommandTypeFund, id, airline.FundPayload{Amount: airline.FundingThreshold})
	}

	// The fifth is only nominated.
	execute(t, h, airline.CommandTypeRegister, genesis, airline.RegisterPayload{AirlineID: "airline-5"})
	rec, err := h.Store().GetAirline(ctx, "airline-5")
	if err != nil {
		t.Fatalf("get airline-5: %v", err)
	}
	if rec.Status != store.AirlineNominated {
		t.Fatalf("status = %v, want %v", rec.Status, store.AirlineNominated)
	}

	// Threshold for 4 funded airlines is 2 distinct votes.
	execute(t, h, airline.CommandTypeVote, genesis, airline.VotePayload{AirlineID: "airline-5"})
	executeExpectCode(t, h, airline.CommandTypeVote, genesis, airline.VotePayload{AirlineID: "airline-5"}, apperrors.CodeAlreadyVoted)

	rec, err = h.Store().GetAirline(ctx, "airline-5")
	if err != nil {
		t.Fatalf("get airline-5: %v", err)
	}
	if rec.Status != store.AirlineNominated {
		t.Fatalf("status = %v, want still nominated after one vote", rec.Status)
	}

	execute(t, h, airline.CommandTypeVote, "airline-2", airline.VotePayload{AirlineID: "airline-5"})
	rec, err = h.Store().GetAirline(ctx, "airline-5")
	if err != nil {
		t.Fatalf("get airline-5: %v", err)
	}
	if rec.Status != store.AirlineRegistered {
		t.Fatalf("status = %v, want %v after threshold", rec.Status, store.AirlineRegistered)
	}
}

func TestExecuteNotifiesSubscribersInOrder(t *testing.T) {
	h := newTestHandler(t)

	var seen []event.Type
	h.Subscribe(func(evt event.Event) {
		seen = append(seen, evt.Type)
	})

	fundGenesis(t, h)
	if len(seen) != 1 || seen[0] != event.TypeAirlineFunded {
		t.Fatalf("seen = %v, want [airline.funded]", seen)
	}
}

func TestExecuteUnknownCommandType(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.Execute(context.Background(), command.Command{
		Type:     "bogus.command",
		CallerID: "someone",
	})
	if err == nil {
		t.Fatal("expected error for unregistered command type")
	}
}
