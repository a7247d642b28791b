// Package operator runs a fleet of oracle identities against a surety server.
//
// The operator registers its identities over HTTP, follows the websocket
// event feed, and answers every status request from the identities that
// hold the chosen index. It stands in for the independent oracle operators
// a real deployment would have.
package operator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skysurety/skysurety/internal/domain/oracle"
	suretyapi "github.com/skysurety/skysurety/internal/services/surety/api"
	"github.com/skysurety/skysurety/internal/store"
)

const requestTimeout = 10 * time.Second

// defaultStatuses is the response distribution. Airline-caused delays are
// over-represented so demo runs regularly trigger payouts.
var defaultStatuses = []store.FlightStatus{
	store.FlightStatusOnTime,
	store.FlightStatusLateAirline,
	store.FlightStatusLateAirline,
	store.FlightStatusLateAirline,
	store.FlightStatusLateWeather,
	store.FlightStatusLateTechnical,
	store.FlightStatusLateOther,
}

// Config controls one operator run.
type Config struct {
	// BaseURL is the surety server HTTP address, e.g. http://localhost:8080.
	BaseURL string
	// Secret is the shared token secret used to mint oracle credentials.
	Secret string
	// OracleCount is how many oracle identities to run.
	OracleCount int
	// IDPrefix namespaces the oracle identities.
	IDPrefix string
	// Statuses overrides the response distribution; empty uses the default.
	Statuses []store.FlightStatus
	// Seed fixes the random status choice; zero seeds from the clock.
	Seed int64
}

// Operator registers oracles and answers status requests.
type Operator struct {
	baseURL  string
	auth     *suretyapi.Authenticator
	client   *http.Client
	statuses []store.FlightStatus
	rng      *rand.Rand

	count  int
	prefix string
	// indexes maps each registered oracle identity to its assigned indexes.
	indexes map[string][3]uint8
}

// New creates an operator from config.
func New(cfg Config) (*Operator, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	auth, err := suretyapi.NewAuthenticator(cfg.Secret)
	if err != nil {
		return nil, err
	}
	count := cfg.OracleCount
	if count <= 0 {
		count = 20
	}
	prefix := strings.TrimSpace(cfg.IDPrefix)
	if prefix == "" {
		prefix = "oracle"
	}
	statuses := cfg.Statuses
	if len(statuses) == 0 {
		statuses = defaultStatuses
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Operator{
		baseURL:  baseURL,
		auth:     auth,
		client:   &http.Client{Timeout: requestTimeout},
		statuses: statuses,
		rng:      rand.New(rand.NewSource(seed)),
		count:    count,
		prefix:   prefix,
		indexes:  make(map[string][3]uint8),
	}, nil
}

// Run registers the oracle fleet and serves status requests until the
// context is cancelled.
func (o *Operator) Run(ctx context.Context) error {
	if err := o.RegisterOracles(ctx); err != nil {
		return err
	}
	return o.Follow(ctx)
}

// RegisterOracles registers every identity and records its indexes.
// Identities already registered from a previous run are re-adopted.
func (o *Operator) RegisterOracles(ctx context.Context) error {
	for i := 1; i <= o.count; i++ {
		oracleID := fmt.Sprintf("%s-%03d", o.prefix, i)
		if err := o.registerOne(ctx, oracleID); err != nil {
			return fmt.Errorf("register %s: %w", oracleID, err)
		}
	}
	log.Printf("operator: %d oracles ready", len(o.indexes))
	return nil
}

func (o *Operator) registerOne(ctx context.Context, oracleID string) error {
	status, _, err := o.do(ctx, oracleID, http.MethodPost, "/v1/oracles",
		map[string]any{"fee": oracle.RegistrationFee})
	if err != nil {
		return err
	}
	// Conflict means the identity is already registered; adopt it.
	if status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("unexpected status %d", status)
	}

	getStatus, body, err := o.do(ctx, oracleID, http.MethodGet, "/v1/oracles/"+oracleID, nil)
	if err != nil {
		return err
	}
	if getStatus != http.StatusOK {
		return fmt.Errorf("fetch indexes: unexpected status %d", getStatus)
	}
	var parsed struct {
		Indexes []uint8 `json:"indexes"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decode indexes: %w", err)
	}
	if len(parsed.Indexes) != 3 {
		return fmt.Errorf("got %d indexes, want 3", len(parsed.Indexes))
	}
	o.indexes[oracleID] = [3]uint8{parsed.Indexes[0], parsed.Indexes[1], parsed.Indexes[2]}
	return nil
}

// Follow consumes the event feed and answers oracle.requested events.
func (o *Operator) Follow(ctx context.Context) error {
	wsURL := "ws" + strings.TrimPrefix(o.baseURL, "http") + "/v1/events"
	token, err := o.auth.Mint(o.prefix+"-feed", time.Hour)
	if err != nil {
		return fmt.Errorf("mint feed token: %w", err)
	}
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("dial event feed: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var message suretyapi.EventMessage
		if err := conn.ReadJSON(&message); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event feed: %w", err)
		}
		if message.Type != "oracle.requested" {
			continue
		}
		var payload oracle.RequestPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			log.Printf("operator: decode request payload: %v", err)
			continue
		}
		o.respond(ctx, payload.FlightKey, payload.Index)
	}
}

// respond submits one response per identity holding the requested index.
// Rejections after finalization are expected and only logged.
func (o *Operator) respond(ctx context.Context, flightKey string, index uint8) {
	chosen := o.statuses[o.rng.Intn(len(o.statuses))]
	for oracleID, indexes := range o.indexes {
		if indexes[0] != index && indexes[1] != index && indexes[2] != index {
			continue
		}
		status, body, err := o.do(ctx, oracleID, http.MethodPost, "/v1/oracles/responses", map[string]any{
			"flight_key": flightKey,
			"index":      index,
			"status":     uint(chosen),
		})
		if err != nil {
			log.Printf("operator: %s respond: %v", oracleID, err)
			continue
		}
		if status != http.StatusOK {
			log.Printf("operator: %s response declined (%d): %s", oracleID, status, string(body))
			continue
		}
		log.Printf("operator: %s reported flight %s status %d", oracleID, flightKey, chosen)
	}
}

func (o *Operator) do(ctx context.Context, caller, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}
	token, err := o.auth.Mint(caller, time.Hour)
	if err != nil {
		return 0, nil, fmt.Errorf("mint token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
