// Package engine executes ledger commands atomically against the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/ledger/journal"
	apperrors "github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/store"
)

var (
	// ErrCommandRegistryRequired indicates a missing command registry.
	ErrCommandRegistryRequired = errors.New("command registry is required")
	// ErrEventRegistryRequired indicates a missing event registry.
	ErrEventRegistryRequired = errors.New("event registry is required")
	// ErrJournalRequired indicates a missing journal.
	ErrJournalRequired = errors.New("journal is required")
	// ErrStoreRequired indicates a missing store.
	ErrStoreRequired = errors.New("store is required")
	// ErrWriterRequired indicates a missing writer identity.
	ErrWriterRequired = errors.New("writer id is required")
	// ErrModuleUnknown indicates a command or event with no handling module.
	ErrModuleUnknown = errors.New("no module handles this domain")
)

// opsDomain commands bypass the operational gate so the owner can recover a
// paused ledger.
const opsDomain = "operations"

// Module decides commands and folds events for one or more domains.
type Module interface {
	Domains() []string
	Decide(ctx context.Context, st *store.Store, cmd command.Command, now func() time.Time) (command.Decision, error)
	Apply(ctx context.Context, st *store.Store, writerID string, evt event.Event) error
}

// Subscriber receives every appended event, in journal order.
type Subscriber func(event.Event)

// Handler validates, decides, journals, and applies commands one at a time.
//
// Execution is serialized behind a single-writer mutex: a command sees the
// state left by the previous command, and its events are appended and folded
// before the next command starts. A failure while folding restores the store
// from the pre-command snapshot so no partial mutation is ever visible.
type Handler struct {
	mu sync.Mutex

	commands *command.Registry
	events   *event.Registry
	journal  journal.Journal
	store    *store.Store
	writerID string
	modules  map[string]Module
	now      func() time.Time

	subMu       sync.RWMutex
	subscribers []Subscriber
}

// Config wires a Handler.
type Config struct {
	Commands *command.Registry
	Events   *event.Registry
	Journal  journal.Journal
	Store    *store.Store
	// WriterID is the identity the engine uses on the store allow-list.
	WriterID string
	Modules  []Module
	Now      func() time.Time
}

// New builds a Handler and indexes its modules by domain.
func New(cfg Config) (*Handler, error) {
	if cfg.Commands == nil {
		return nil, ErrCommandRegistryRequired
	}
	if cfg.Events == nil {
		return nil, ErrEventRegistryRequired
	}
	if cfg.Journal == nil {
		return nil, ErrJournalRequired
	}
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}
	if strings.TrimSpace(cfg.WriterID) == "" {
		return nil, ErrWriterRequired
	}
	modules := make(map[string]Module)
	for _, module := range cfg.Modules {
		for _, domain := range module.Domains() {
			if _, exists := modules[domain]; exists {
				return nil, fmt.Errorf("domain registered twice: %s", domain)
			}
			modules[domain] = module
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		commands: cfg.Commands,
		events:   cfg.Events,
		journal:  cfg.Journal,
		store:    cfg.Store,
		writerID: cfg.WriterID,
		modules:  modules,
		now:      now,
	}, nil
}

// Subscribe registers a subscriber for appended events. Subscribers are
// invoked synchronously after the command commits, in journal order.
func (h *Handler) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	h.subMu.Lock()
	defer h.subMu.Unlock()
	h.subscribers = append(h.subscribers, sub)
}

// Execute runs one command end to end and returns its decision. Domain
// rejections come back inside the decision with a nil error; infrastructure
// failures come back as errors.
func (h *Handler) Execute(ctx context.Context, cmd command.Command) (command.Decision, error) {
	validated, err := h.commands.ValidateForDecision(cmd)
	if err != nil {
		return command.Decision{}, apperrors.Wrap(apperrors.CodeInvalidCommand, "command rejected", err)
	}
	cmd = validated

	domain := domainOf(string(cmd.Type))
	module, ok := h.modules[domain]
	if !ok {
		return command.Decision{}, fmt.Errorf("%w: %s", ErrModuleUnknown, domain)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if domain != opsDomain && !h.store.IsOperational() {
		return command.Decision{}, apperrors.New(apperrors.CodeNotOperational, "ledger is not operational")
	}

	decision, err := module.Decide(ctx, h.store, cmd, h.now)
	if err != nil {
		return command.Decision{}, err
	}
	if len(decision.Rejections) > 0 {
		return decision, nil
	}

	vetted := make([]event.Event, 0, len(decision.Events))
	for _, evt := range decision.Events {
		validated, err := h.events.ValidateForAppend(evt)
		if err != nil {
			return command.Decision{}, fmt.Errorf("event invalid: %w", err)
		}
		vetted = append(vetted, validated)
	}

	snapshot := h.store.Snapshot()
	appended := make([]event.Event, 0, len(vetted))
	for _, evt := range vetted {
		stored, err := h.journal.Append(ctx, evt)
		if err != nil {
			h.store.Restore(snapshot)
			return command.Decision{}, fmt.Errorf("append event: %w", err)
		}
		applier, ok := h.modules[stored.Type.Domain()]
		if !ok {
			h.store.Restore(snapshot)
			return command.Decision{}, fmt.Errorf("%w: %s", ErrModuleUnknown, stored.Type.Domain())
		}
		if err := applier.Apply(ctx, h.store, h.writerID, stored); err != nil {
			h.store.Restore(snapshot)
			return command.Decision{}, fmt.Errorf("apply event %s: %w", stored.Type, err)
		}
		appended = append(appended, stored)
	}
	decision.Events = appended

	h.notify(appended)
	return decision, nil
}

func (h *Handler) notify(events []event.Event) {
	h.subMu.RLock()
	subscribers := append([]Subscriber(nil), h.subscribers...)
	h.subMu.RUnlock()
	for _, evt := range events {
		for _, sub := range subscribers {
			sub(evt)
		}
	}
}

// Store returns the handler's authoritative store for read paths.
func (h *Handler) Store() *store.Store {
	return h.store
}

// Journal returns the handler's journal for followers and diagnostics.
func (h *Handler) Journal() journal.Journal {
	return h.journal
}

func domainOf(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}
