package command

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/event"
	apperrors "github.com/skysurety/skysurety/internal/platform/errors"
)

func TestRegistryValidateForDecision_RequiresRegisteredType(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ValidateForDecision(Command{Type: "airline.register", CallerID: "air-1"})
	if !errors.Is(err, ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
	_, err = registry.ValidateForDecision(Command{CallerID: "air-1"})
	if !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("expected ErrTypeRequired, got %v", err)
	}
}

func TestRegistryValidateForDecision_RequiresCaller(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "airline.register"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := registry.ValidateForDecision(Command{Type: "airline.register"})
	if !errors.Is(err, ErrCallerRequired) {
		t.Fatalf("expected ErrCallerRequired, got %v", err)
	}
}

func TestRegistryValidateForDecision_AllowsAnonymousWhenDeclared(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "oracle.request", AllowAnonymous: true}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cmd, err := registry.ValidateForDecision(Command{Type: "oracle.request"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(cmd.PayloadJSON) != "{}" {
		t.Fatalf("expected empty payload default, got %s", cmd.PayloadJSON)
	}
}

func TestRegistryValidateForDecision_RejectsInvalidPayload(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "insurance.buy"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := registry.ValidateForDecision(Command{
		Type:        "insurance.buy",
		CallerID:    "pax-1",
		PayloadJSON: []byte("{not json"),
	})
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestRegistryValidateForDecision_RunsPayloadValidator(t *testing.T) {
	registry := NewRegistry()
	wantErr := errors.New("amount required")
	if err := registry.Register(Definition{
		Type: "insurance.buy",
		ValidatePayload: func(raw json.RawMessage) error {
			var payload struct {
				Amount uint64 `json:"amount"`
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return err
			}
			if payload.Amount == 0 {
				return wantErr
			}
			return nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := registry.ValidateForDecision(Command{
		Type:        "insurance.buy",
		CallerID:    "pax-1",
		PayloadJSON: []byte(`{"amount":0}`),
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected validator error, got %v", err)
	}
}

func TestRegisterRejectsDuplicateType(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: "airline.fund"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(Definition{Type: "airline.fund"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestDecisionErr(t *testing.T) {
	accepted := Accept()
	if err := accepted.Err(); err != nil {
		t.Fatalf("accepted decision should have no error, got %v", err)
	}

	rejected := Reject(Rejection{Code: apperrors.CodeAlreadyVoted, Message: "duplicate vote"})
	err := rejected.Err()
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if apperrors.CodeOf(err) != apperrors.CodeAlreadyVoted {
		t.Fatalf("unexpected code: %s", apperrors.CodeOf(err))
	}
}

func TestNewEventCopiesEnvelope(t *testing.T) {
	cmd := Command{
		Type:      "flight.register",
		CallerID:  "air-1",
		RequestID: "req-1",
	}
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	evt := NewEvent(cmd, event.Type("flight.registered"), "flight", "key-1", []byte(`{"name":"DRK"}`), stamp)
	if evt.CallerID != "air-1" || evt.RequestID != "req-1" {
		t.Fatalf("envelope not copied: %+v", evt)
	}
	if evt.EntityType != "flight" || evt.EntityID != "key-1" {
		t.Fatalf("entity addressing not set: %+v", evt)
	}
	if !evt.Timestamp.Equal(stamp) {
		t.Fatalf("timestamp = %v, want %v", evt.Timestamp, stamp)
	}
}
