// Package scenario runs an in-process end-to-end ledger walkthrough.
//
// It drives one full insurance lifecycle against an in-memory engine:
// fund the genesis airline, register a flight, sell a policy, open a
// status request, reach an oracle quorum on an airline delay, and let the
// passenger withdraw the payout.
package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/skysurety/skysurety/internal/domain/airline"
	"github.com/skysurety/skysurety/internal/domain/flight"
	"github.com/skysurety/skysurety/internal/domain/insurance"
	"github.com/skysurety/skysurety/internal/domain/ops"
	"github.com/skysurety/skysurety/internal/domain/oracle"
	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/engine"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/ledger/journal"
	entrypoint "github.com/skysurety/skysurety/internal/platform/cmd"
	"github.com/skysurety/skysurety/internal/platform/id"
	"github.com/skysurety/skysurety/internal/store"
)

const (
	ownerID     = "owner"
	writerID    = "scenario-engine"
	genesisID   = "skyline-air"
	passengerID = "passenger-ada"

	// maxOracles bounds registration while hunting for index holders.
	maxOracles = 200
)

// Config holds scenario command configuration.
type Config struct {
	Verbose bool `env:"SKYSURETY_SCENARIO_VERBOSE"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "print every emitted event")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the walkthrough, writing progress to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(context.Context) error {
		return run(ctx, cfg, out)
	})
}

type walkthrough struct {
	handler *engine.Handler
	out     io.Writer

	step    *color.Color
	detail  *color.Color
	success *color.Color
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	handler, err := buildEngine()
	if err != nil {
		return err
	}
	w := &walkthrough{
		handler: handler,
		out:     out,
		step:    color.New(color.FgCyan, color.Bold),
		detail:  color.New(color.Faint),
		success: color.New(color.FgGreen, color.Bold),
	}
	if cfg.Verbose {
		handler.Subscribe(func(evt event.Event) {
			w.detail.Fprintf(out, "    event #%d %s entity=%s\n", evt.Seq, evt.Type, evt.EntityID)
		})
	}
	return w.play(ctx)
}

func buildEngine() (*engine.Handler, error) {
	st := store.New(ownerID, genesisID)
	if err := st.Authorize(ownerID, writerID); err != nil {
		return nil, fmt.Errorf("authorize writer: %w", err)
	}

	commands := command.NewRegistry()
	events := event.NewRegistry()
	ledgerLog := journal.NewMemory(events)

	airlines := airline.Module{}
	flights := flight.Module{}
	policies := insurance.Module{}
	oracles := oracle.Module{Entropy: ledgerLog.LastChainHash}
	operations := ops.Module{}
	for _, register := range []func(*command.Registry, *event.Registry) error{
		airlines.Register, flights.Register, policies.Register,
		oracles.Register, operations.Register,
	} {
		if err := register(commands, events); err != nil {
			return nil, fmt.Errorf("register module: %w", err)
		}
	}

	return engine.New(engine.Config{
		Commands: commands,
		Events:   events,
		Journal:  ledgerLog,
		Store:    st,
		WriterID: writerID,
		Modules:  []engine.Module{airlines, flights, policies, oracles, operations},
	})
}

func (w *walkthrough) play(ctx context.Context) error {
	w.step.Fprintf(w.out, "== %s funds its stake\n", genesisID)
	if _, err := w.execute(ctx, airline.CommandTypeFund, genesisID,
		airline.FundPayload{Amount: airline.FundingThreshold}); err != nil {
		return err
	}

	w.step.Fprintln(w.out, "== flight SS-101 is registered")
	departs := time.Now().Add(48 * time.Hour).UTC()
	decision, err := w.execute(ctx, flight.CommandTypeRegister, genesisID,
		flight.RegisterPayload{Name: "SS-101", DepartsAt: departs.Unix()})
	if err != nil {
		return err
	}
	flightKey := decision.Events[0].EntityID
	w.detail.Fprintf(w.out, "    key %s departs %s\n", flightKey, departs.Format(time.RFC3339))

	w.step.Fprintf(w.out, "== %s buys insurance at the cap\n", passengerID)
	if _, err := w.execute(ctx, insurance.CommandTypeBuy, passengerID,
		insurance.BuyPayload{FlightKey: flightKey, Amount: insurance.Cap}); err != nil {
		return err
	}

	w.step.Fprintln(w.out, "== a status request opens")
	decision, err = w.execute(ctx, oracle.CommandTypeRequest, passengerID,
		oracle.RequestPayload{FlightKey: flightKey})
	if err != nil {
		return err
	}
	var request oracle.RequestPayload
	if err := json.Unmarshal(decision.Events[0].PayloadJSON, &request); err != nil {
		return fmt.Errorf("decode request payload: %w", err)
	}
	w.detail.Fprintf(w.out, "    chosen index %d\n", request.Index)

	w.step.Fprintln(w.out, "== oracles register until three hold the index")
	holders, err := w.recruitHolders(ctx, request.Index)
	if err != nil {
		return err
	}
	w.detail.Fprintf(w.out, "    holders: %v\n", holders)

	w.step.Fprintln(w.out, "== the quorum reports an airline delay")
	for _, oracleID := range holders {
		decision, err = w.execute(ctx, oracle.CommandTypeReport, oracleID, oracle.ReportPayload{
			FlightKey: flightKey,
			Index:     request.Index,
			Status:    uint(store.FlightStatusLateAirline),
		})
		if err != nil {
			return err
		}
	}
	finalized := false
	for _, evt := range decision.Events {
		if evt.Type == event.TypeFlightStatusFinalized {
			finalized = true
		}
	}
	if !finalized {
		return errors.New("quorum did not finalize the flight")
	}

	balance, err := w.handler.Store().CreditBalance(ctx, passengerID)
	if err != nil {
		return fmt.Errorf("read credit balance: %w", err)
	}
	w.success.Fprintf(w.out, "== payout credited: %d micro-tokens (1.5x the premium)\n", balance)

	w.step.Fprintf(w.out, "== %s withdraws\n", passengerID)
	if _, err := w.execute(ctx, insurance.CommandTypeWithdraw, passengerID,
		insurance.WithdrawPayload{}); err != nil {
		return err
	}
	pool, err := w.handler.Store().PoolBalance(ctx)
	if err != nil {
		return fmt.Errorf("read pool balance: %w", err)
	}
	w.success.Fprintf(w.out, "== done; pool holds %d micro-tokens\n", pool)
	return nil
}

// recruitHolders registers oracle identities until three hold the index.
func (w *walkthrough) recruitHolders(ctx context.Context, index uint8) ([]string, error) {
	holders := make([]string, 0, 3)
	for i := 1; i <= maxOracles && len(holders) < 3; i++ {
		oracleID := fmt.Sprintf("oracle-%03d", i)
		decision, err := w.execute(ctx, oracle.CommandTypeRegister, oracleID,
			oracle.RegisterPayload{Fee: oracle.RegistrationFee})
		if err != nil {
			return nil, err
		}
		var payload oracle.RegisterPayload
		if err := json.Unmarshal(decision.Events[0].PayloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("decode oracle payload: %w", err)
		}
		for _, assigned := range payload.Indexes {
			if assigned == index {
				holders = append(holders, oracleID)
				break
			}
		}
	}
	if len(holders) < 3 {
		return nil, fmt.Errorf("only %d of 3 holders found after %d oracles", len(holders), maxOracles)
	}
	return holders, nil
}

func (w *walkthrough) execute(ctx context.Context, cmdType command.Type, caller string, payload any) (command.Decision, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return command.Decision{}, fmt.Errorf("marshal payload: %w", err)
	}
	requestID, err := id.NewID()
	if err != nil {
		return command.Decision{}, err
	}
	decision, err := w.handler.Execute(ctx, command.Command{
		Type:        cmdType,
		CallerID:    caller,
		RequestID:   requestID,
		PayloadJSON: raw,
	})
	if err != nil {
		return command.Decision{}, fmt.Errorf("execute %s: %w", cmdType, err)
	}
	if err := decision.Err(); err != nil {
		return command.Decision{}, fmt.Errorf("%s rejected: %w", cmdType, err)
	}
	return decision, nil
}
