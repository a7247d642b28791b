// Package server wires the listing runtime and HTTP lifecycle.
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

	"github.com/skysurety/skysurety/internal/platform/config"
	listingapi "github.com/skysurety/skysurety/internal/services/listing/api"
	listingsqlite "github.com/skysurety/skysurety/internal/services/listing/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

type serverEnv struct {
	DBPath string `env:"SKYSURETY_LISTING_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "listing.db")
	}
	return cfg
}

// Server hosts the listing HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *listingsqlite.Store
}

// New creates a configured listing server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured listing server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env := loadServerEnv()
	store, err := openListingStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	service := listingapi.NewService(store)
	httpServer := &http.Server{
		Handler:           service.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		listener:   listener,
		httpServer: httpServer,
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a listing server until context cancellation.
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

	log.Printf("listing server listening at %v", s.listener.Addr())
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

// Close releases listing server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close listing store: %v", err)
		}
	}
}

func openListingStore(path string) (*listingsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := listingsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listing sqlite store: %w", err)
	}
	return store, nil
}
