// Package journal provides the append-only, hash-chained event log.
//
// The journal is the ledger's total order: Append assigns each event a
// sequence number, a content hash, and a chain hash linking it to the
// previous entry. Followers replay the log with ListEvents.
package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/skysurety/skysurety/internal/ledger/event"
)

// Journal is the append-only event log contract.
type Journal interface {
	// Append validates the event, assigns Seq and the hash chain, and stores it.
	Append(ctx context.Context, evt event.Event) (event.Event, error)
	// ListEvents returns up to limit events with Seq > afterSeq, in order.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	// LastChainHash returns the newest entry's chain hash, or "" when empty.
	// Deciders use it as ledger-derived entropy.
	LastChainHash(ctx context.Context) (string, error)
}

// contentHash computes the content-addressed identity of an event,
// SHA-256 truncated to 128 bits.
func contentHash(evt event.Event) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(evt.Seq, 10)))
	h.Write([]byte{0})
	h.Write([]byte(evt.Type))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(evt.Timestamp.UTC().UnixMilli(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(evt.CallerID))
	h.Write([]byte{0})
	h.Write([]byte(evt.RequestID))
	h.Write([]byte{0})
	h.Write([]byte(evt.EntityType))
	h.Write([]byte{0})
	h.Write([]byte(evt.EntityID))
	h.Write([]byte{0})
	h.Write(evt.PayloadJSON)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// chainHash links an event's content hash to the previous chain hash.
func chainHash(prev, hash string) string {
	sum := sha256.Sum256([]byte(prev + hash))
	return hex.EncodeToString(sum[:])
}

// Seal assigns the hash-chain fields for an event at the given position.
// Implementations call it after deciding the entry's predecessor.
func Seal(evt event.Event, seq uint64, prevChain string) (event.Event, error) {
	if seq == 0 {
		return event.Event{}, fmt.Errorf("sequence must start at 1")
	}
	evt.Seq = seq
	evt.PrevHash = prevChain
	evt.Hash = contentHash(evt)
	evt.ChainHash = chainHash(prevChain, evt.Hash)
	return evt, nil
}
