package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skysurety/skysurety/internal/domain/airline"
	listingsqlite "github.com/skysurety/skysurety/internal/services/listing/storage/sqlite"
	suretyapi "github.com/skysurety/skysurety/internal/services/surety/api"
)

func startTestServer(t *testing.T, projectionPath string) *Server {
	t.Helper()

	t.Setenv("SKYSURETY_SURETY_OWNER_ID", "owner")
	t.Setenv("SKYSURETY_SURETY_GENESIS_AIRLINE_ID", "airline-1")
	t.Setenv("SKYSURETY_SURETY_JWT_SECRET", "test-secret")
	t.Setenv("SKYSURETY_SURETY_JOURNAL_DB_PATH", t.TempDir()+"/journal.db")
	t.Setenv("SKYSURETY_SURETY_PROJECTION_DB_PATH", projectionPath)

	srv, err := NewWithAddr("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})
	return srv
}

func postJSON(t *testing.T, srv *Server, caller, path string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s%s", srv.Addr(), path), bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	token, err := srv.Auth().Mint(caller, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestServerStreamsEventsAndProjectsFlights(t *testing.T) {
	projectionPath := t.TempDir() + "/listing.db"
	srv := startTestServer(t, projectionPath)

	// Follow the event feed before issuing commands.
	token, err := srv.Auth().Mint("follower", time.Hour)
	if err != nil {
		t.Fatalf("mint follower token: %v", err)
	}
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/v1/events", srv.Addr()), header)
	if err != nil {
		t.Fatalf("dial event feed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	resp := postJSON(t, srv, "airline-1", "/v1/funding", map[string]any{"amount": airline.FundingThreshold})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fund status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postJSON(t, srv, "airline-1", "/v1/flights", map[string]any{
		"name":       "SS-101",
		"departs_at": time.Now().Add(48 * time.Hour).UTC(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register flight status = %d", resp.StatusCode)
	}
	var registered struct {
		Events []suretyapi.EventMessage `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&registered); err != nil {
		t.Fatalf("decode flight response: %v", err)
	}
	_ = resp.Body.Close()
	if len(registered.Events) != 1 {
		t.Fatalf("flight registration emitted %d events, want 1", len(registered.Events))
	}
	flightKey := registered.Events[0].EntityID

	// The feed replays both commands in journal order.
	wantTypes := []string{"airline.funded", "flight.registered"}
	for _, want := range wantTypes {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var message suretyapi.EventMessage
		if err := conn.ReadJSON(&message); err != nil {
			t.Fatalf("read feed message: %v", err)
		}
		if message.Type != want {
			t.Fatalf("feed message type = %q, want %q", message.Type, want)
		}
	}

	// The projection row lands in the listing database.
	listingStore, err := listingsqlite.Open(projectionPath)
	if err != nil {
		t.Fatalf("open projection store: %v", err)
	}
	t.Cleanup(func() { _ = listingStore.Close() })

	deadline := time.Now().Add(5 * time.Second)
	for {
		listing, err := listingStore.GetFlight(context.Background(), flightKey)
		if err == nil {
			if listing.Name != "SS-101" {
				t.Fatalf("projected name = %q, want SS-101", listing.Name)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("projection row never appeared: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestServerRejectsUnauthenticatedFeed(t *testing.T) {
	srv := startTestServer(t, t.TempDir()+"/listing.db")

	_, resp, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/v1/events", srv.Addr()), nil)
	if err == nil {
		t.Fatal("expected dial failure without token")
	}
	if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("handshake status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}
