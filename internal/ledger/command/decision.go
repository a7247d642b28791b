package command

import (
	"github.com/skysurety/skysurety/internal/ledger/event"
	apperrors "github.com/skysurety/skysurety/internal/platform/errors"
)

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code    apperrors.Code
	Message string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// Err converts the first rejection into a typed domain error, or nil.
func (d Decision) Err() error {
	if len(d.Rejections) == 0 {
		return nil
	}
	first := d.Rejections[0]
	return apperrors.New(first.Code, first.Message)
}
