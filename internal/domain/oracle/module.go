package oracle

import (
	"context"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/store"
)

// EntropySource supplies ledger-derived entropy for index assignment,
// typically the journal's chain head.
type EntropySource func(ctx context.Context) (string, error)

// Module adapts the oracle decider and fold to the ledger engine.
type Module struct {
	Entropy EntropySource
}

// Domains returns the command and event domains this module handles.
func (Module) Domains() []string { return []string{"oracle"} }

// Decide loads oracle state, including current entropy, and decides the command.
func (m Module) Decide(ctx context.Context, st *store.Store, cmd command.Command, now func() time.Time) (command.Decision, error) {
	var entropy string
	if m.Entropy != nil {
		var err error
		entropy, err = m.Entropy(ctx)
		if err != nil {
			return command.Decision{}, err
		}
	}
	state, err := LoadState(ctx, st, cmd, entropy)
	if err != nil {
		return command.Decision{}, err
	}
	return Decide(state, cmd, now), nil
}

// Apply folds one oracle event into the store.
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
