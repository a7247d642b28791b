// Package server wires the surety ledger runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skysurety/skysurety/internal/domain/airline"
	"github.com/skysurety/skysurety/internal/domain/flight"
	"github.com/skysurety/skysurety/internal/domain/insurance"
	"github.com/skysurety/skysurety/internal/domain/ops"
	"github.com/skysurety/skysurety/internal/domain/oracle"
	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/engine"
	"github.com/skysurety/skysurety/internal/ledger/event"
	"github.com/skysurety/skysurety/internal/ledger/journal"
	journalsqlite "github.com/skysurety/skysurety/internal/ledger/journal/sqlite"
	"github.com/skysurety/skysurety/internal/platform/config"
	listingsqlite "github.com/skysurety/skysurety/internal/services/listing/storage/sqlite"
	suretyapi "github.com/skysurety/skysurety/internal/services/surety/api"
	"github.com/skysurety/skysurety/internal/services/surety/projection"
	"github.com/skysurety/skysurety/internal/store"
)

const shutdownTimeout = 5 * time.Second

// writerID identifies the engine as the store's authorized mutator.
const writerID = "surety-engine"

type serverEnv struct {
	OwnerID          string `env:"SKYSURETY_SURETY_OWNER_ID" envDefault:"owner"`
	GenesisAirlineID string `env:"SKYSURETY_SURETY_GENESIS_AIRLINE_ID" envDefault:"airline-genesis"`
	JWTSecret        string `env:"SKYSURETY_SURETY_JWT_SECRET" envDefault:"dev-secret"`
	JournalDBPath    string `env:"SKYSURETY_SURETY_JOURNAL_DB_PATH"`
	ProjectionDBPath string `env:"SKYSURETY_SURETY_PROJECTION_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	return cfg
}

// Server hosts the ledger engine and its HTTP API.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	handler    *engine.Handler
	auth       *suretyapi.Authenticator
	hub        *suretyapi.Hub
	journal    journal.Journal
	projection *listingsqlite.Store
}

// New creates a configured surety server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured surety server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	env := loadServerEnv()
	return newServer(addr, env)
}

func newServer(addr string, env serverEnv) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv, err := buildServer(listener, env)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	return srv, nil
}

func buildServer(listener net.Listener, env serverEnv) (*Server, error) {
	commands := command.NewRegistry()
	events := event.NewRegistry()

	airlines := airline.Module{}
	flights := flight.Module{}
	policies := insurance.Module{}
	operations := ops.Module{}
	for _, register := range []func(*command.Registry, *event.Registry) error{
		airlines.Register, flights.Register, policies.Register, operations.Register,
	} {
		if err := register(commands, events); err != nil {
			return nil, fmt.Errorf("register module: %w", err)
		}
	}

	ledgerLog, closeJournal, err := openJournal(env.JournalDBPath, events)
	if err != nil {
		return nil, err
	}

	oracles := oracle.Module{Entropy: ledgerLog.LastChainHash}
	if err := oracles.Register(commands, events); err != nil {
		closeJournal()
		return nil, fmt.Errorf("register oracle module: %w", err)
	}

	st := store.New(env.OwnerID, env.GenesisAirlineID)
	if err := st.Authorize(env.OwnerID, writerID); err != nil {
		closeJournal()
		return nil, fmt.Errorf("authorize engine writer: %w", err)
	}

	handler, err := engine.New(engine.Config{
		Commands: commands,
		Events:   events,
		Journal:  ledgerLog,
		Store:    st,
		WriterID: writerID,
		Modules:  []engine.Module{airlines, flights, policies, oracles, operations},
	})
	if err != nil {
		closeJournal()
		return nil, fmt.Errorf("new engine: %w", err)
	}

	auth, err := suretyapi.NewAuthenticator(env.JWTSecret)
	if err != nil {
		closeJournal()
		return nil, err
	}

	hub := suretyapi.NewHub()
	handler.Subscribe(hub.Publish)

	var projectionStore *listingsqlite.Store
	if strings.TrimSpace(env.ProjectionDBPath) != "" {
		projectionStore, err = openProjectionStore(env.ProjectionDBPath)
		if err != nil {
			closeJournal()
			return nil, err
		}
		handler.Subscribe(projection.NewFlightWriter(projectionStore).Handle)
	}

	service, err := suretyapi.NewService(handler, auth, hub)
	if err != nil {
		closeJournal()
		if projectionStore != nil {
			_ = projectionStore.Close()
		}
		return nil, err
	}

	httpServer := &http.Server{
		Handler:           service.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		listener:   listener,
		httpServer: httpServer,
		handler:    handler,
		auth:       auth,
		hub:        hub,
		journal:    ledgerLog,
		projection: projectionStore,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler exposes the engine for in-process collaborators.
func (s *Server) Handler() *engine.Handler {
	if s == nil {
		return nil
	}
	return s.handler
}

// Auth exposes the token authority, used to mint caller credentials.
func (s *Server) Auth() *suretyapi.Authenticator {
	if s == nil {
		return nil
	}
	return s.auth
}

// Run creates and serves a surety server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("surety server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases surety server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if closer, ok := s.journal.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Printf("close journal: %v", err)
		}
	}
	if s.projection != nil {
		if err := s.projection.Close(); err != nil {
			log.Printf("close projection store: %v", err)
		}
	}
}

func openJournal(path string, events *event.Registry) (journal.Journal, func(), error) {
	if strings.TrimSpace(path) == "" {
		return journal.NewMemory(events), func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	store, err := journalsqlite.Open(path, events)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal sqlite store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

func openProjectionStore(path string) (*listingsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create projection dir: %w", err)
		}
	}
	store, err := listingsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open projection sqlite store: %w", err)
	}
	return store, nil
}
