package flight

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func registerCmd(t *testing.T, caller, name string, departsAt int64) command.Command {
	t.Helper()
	raw, err := json.Marshal(RegisterPayload{Name: name, DepartsAt: departsAt})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return command.Command{Type: CommandTypeRegister, CallerID: caller, PayloadJSON: raw}
}

func TestKeyDeterministic(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	first := Key("a1", "SS1000", at)
	second := Key("a1", "SS1000", at)
	if first != second {
		t.Fatalf("key not deterministic: %s vs %s", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("len(key) = %d, want 32", len(first))
	}
	if Key("a2", "SS1000", at) == first {
		t.Fatal("keys for different airlines collide")
	}
	if Key("a1", "SS1001", at) == first {
		t.Fatal("keys for different names collide")
	}
	if Key("a1", "SS1000", at.Add(time.Hour)) == first {
		t.Fatal("keys for different departures collide")
	}
}

func TestDecideRegisterEmitsFlight(t *testing.T) {
	state := State{
		Caller:       store.AirlineRecord{ID: "a1", Status: store.AirlineFunded},
		CallerExists: true,
	}
	departsAt := fixedNow().Add(24 * time.Hour).Unix()
	cmd := registerCmd(t, "a1", "SS1000", departsAt)

	decision := Decide(state, cmd, fixedNow)
	if len(decision.Events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(decision.Events))
	}
	evt := decision.Events[0]
	if evt.Type != event.TypeFlightRegistered {
		t.Fatalf("event type = %s, want %s", evt.Type, event.TypeFlightRegistered)
	}

	var payload RegisterPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	want := Key("a1", "SS1000", time.Unix(departsAt, 0))
	if payload.FlightKey != want {
		t.Fatalf("flight key = %s, want %s", payload.FlightKey, want)
	}
	if evt.EntityID != want {
		t.Fatalf("entity id = %s, want %s", evt.EntityID, want)
	}
}

func TestDecideRegisterRequiresFundedAirline(t *testing.T) {
	state := State{
		Caller:       store.AirlineRecord{ID: "a1", Status: store.AirlineRegistered},
		CallerExists: true,
	}
	cmd := registerCmd(t, "a1", "SS1000", fixedNow().Unix())

	decision := Decide(state, cmd, fixedNow)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Code != errors.CodeNotFunded {
		t.Fatalf("decision = %+v, want NotFunded rejection", decision)
	}
}

func TestDecideRegisterDuplicateKey(t *testing.T) {
	state := State{
		Caller:       store.AirlineRecord{ID: "a1", Status: store.AirlineFunded},
		CallerExists: true,
		KeyExists:    true,
	}
	cmd := registerCmd(t, "a1", "SS1000", fixedNow().Unix())

	decision := Decide(state, cmd, fixedNow)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Code != errors.CodeDuplicateFlight {
		t.Fatalf("decision = %+v, want DuplicateFlight rejection", decision)
	}
}

func TestDecideRegisterValidatesInput(t *testing.T) {
	state := State{
		Caller:       store.AirlineRecord{ID: "a1", Status: store.AirlineFunded},
		CallerExists: true,
	}

	noName := registerCmd(t, "a1", "  ", fixedNow().Unix())
	decision := Decide(state, noName, fixedNow)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Code != errors.CodeInvalidCommand {
		t.Fatalf("decision = %+v, want InvalidCommand rejection", decision)
	}

	noDeparture := registerCmd(t, "a1", "SS1000", 0)
	decision = Decide(state, noDeparture, fixedNow)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Code != errors.CodeInvalidCommand {
		t.Fatalf("decision = %+v, want InvalidCommand rejection", decision)
	}
}
