package journal

import (
	"context"
	"errors"
	"sync"

	"github.com/skysurety/skysurety/internal/ledger/event"
)

// Memory is an in-memory journal used by tests and the scenario runner.
type Memory struct {
	mu       sync.RWMutex
	registry *event.Registry
	events   []event.Event
}

// NewMemory creates an empty in-memory journal.
func NewMemory(registry *event.Registry) *Memory {
	return &Memory{registry: registry}
}

// Append validates the event, assigns Seq and hashes, and stores it.
func (m *Memory) Append(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if m == nil {
		return event.Event{}, errors.New("journal is required")
	}
	if m.registry != nil {
		validated, err := m.registry.ValidateForAppend(evt)
		if err != nil {
			return event.Event{}, err
		}
		evt = validated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prevChain := ""
	if len(m.events) > 0 {
		prevChain = m.events[len(m.events)-1].ChainHash
	}
	sealed, err := Seal(evt, uint64(len(m.events))+1, prevChain)
	if err != nil {
		return event.Event{}, err
	}
	m.events = append(m.events, sealed)
	return sealed, nil
}

// ListEvents returns up to limit events with Seq > afterSeq, in order.
func (m *Memory) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if afterSeq >= uint64(len(m.events)) {
		return nil, nil
	}
	page := m.events[afterSeq:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	result := make([]event.Event, len(page))
	copy(result, page)
	return result, nil
}

// LastChainHash returns the newest entry's chain hash, or "" when empty.
func (m *Memory) LastChainHash(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.events) == 0 {
		return "", nil
	}
	return m.events[len(m.events)-1].ChainHash, nil
}

var _ Journal = (*Memory)(nil)
