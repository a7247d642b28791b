package ops

import (
	"context"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/store"
)

// Module adapts the operations decider and fold to the ledger engine.
type Module struct{}

// Domains returns the command and event domains this module handles.
func (Module) Domains() []string { return []string{"operations"} }

// Decide loads operational state and decides the command.
func (Module) Decide(ctx context.Context, st *store.Store, cmd command.Command, now func() time.Time) (command.Decision, error) {
	state, err := LoadState(ctx, st, cmd)
	if err != nil {
		return command.Decision{}, err
	}
	return Decide(state, cmd, now), nil
}

// Apply folds one operations event into the store.
func (Module) Apply(ctx context.Context, st *store.Store, writerID string, evt event.Event) error {
	return Apply(ctx, st, writerID, evt)
}

// Register wires the module's commands and events into the shared registries.
func (Module) Register(commands *command.Registry, events *event.Registry) error {
	if err := RegisterCommands(commands); err != nil {
		return err
	}
	return RegisterEvents(events)
}
