package event

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryValidateForAppend_RequiresRegisteredType(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ValidateForAppend(Event{
		Type:       TypeFlightRegistered,
		EntityType: "flight",
		EntityID:   "key-1",
		Timestamp:  time.Unix(0, 0).UTC(),
	})
	if !errors.Is(err, ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
}

func TestRegistryValidateForAppend_RequiresEntityAddressing(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: TypeFlightRegistered}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	base := Event{
		Type:      TypeFlightRegistered,
		Timestamp: time.Unix(0, 0).UTC(),
	}

	_, err := registry.ValidateForAppend(base)
	if !errors.Is(err, ErrEntityTypeRequired) {
		t.Fatalf("expected ErrEntityTypeRequired, got %v", err)
	}

	withType := base
	withType.EntityType = "flight"
	_, err = registry.ValidateForAppend(withType)
	if !errors.Is(err, ErrEntityIDRequired) {
		t.Fatalf("expected ErrEntityIDRequired, got %v", err)
	}

	withTypeAndID := withType
	withTypeAndID.EntityID = "key-1"
	if _, err := registry.ValidateForAppend(withTypeAndID); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
}

func TestRegistryValidateForAppend_RequiresTimestamp(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: TypeAirlineFunded}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	_, err := registry.ValidateForAppend(Event{
		Type:       TypeAirlineFunded,
		EntityType: "airline",
		EntityID:   "air-1",
	})
	if !errors.Is(err, ErrTimestampRequired) {
		t.Fatalf("expected ErrTimestampRequired, got %v", err)
	}
}

func TestRegistryValidateForAppend_DefaultsAndValidatesPayload(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: TypeOracleReported}); err != nil {
		t.Fatalf("register type: %v", err)
	}

	evt, err := registry.ValidateForAppend(Event{
		Type:       TypeOracleReported,
		EntityType: "oracle_request",
		EntityID:   "key-1",
		Timestamp:  time.Unix(0, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(evt.PayloadJSON) != "{}" {
		t.Fatalf("expected payload default, got %s", evt.PayloadJSON)
	}

	_, err = registry.ValidateForAppend(Event{
		Type:        TypeOracleReported,
		EntityType:  "oracle_request",
		EntityID:    "key-1",
		Timestamp:   time.Unix(0, 0).UTC(),
		PayloadJSON: []byte("{broken"),
	})
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestTypeDomain(t *testing.T) {
	if TypeAirlineVoted.Domain() != "airline" {
		t.Fatalf("domain = %s, want airline", TypeAirlineVoted.Domain())
	}
	if Type("plain").Domain() != "plain" {
		t.Fatalf("unprefixed type should return itself")
	}
	if Type(" ").IsValid() {
		t.Fatal("blank type should be invalid")
	}
}
