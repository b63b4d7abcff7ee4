package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/machine"
)

// DefaultAddr is the monitor listen address
const DefaultAddr = "127.0.0.1:8081"

// Config holds the monitor configuration
type Config struct {
	Addr string
}

// SnapshotSource provides the current machine state
type SnapshotSource interface {
	Snapshot() machine.Snapshot
}

// Server is the monitor HTTP server
type Server struct {
	config   *Config
	source   SnapshotSource
	metrics  http.Handler
	hub      *hub
	upgrader websocket.Upgrader

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a monitor server. metrics may be nil.
func New(config *Config, source SnapshotSource, metrics http.Handler) *Server {
	if config == nil {
		config = &Config{}
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	return &Server{
		config:  config,
		source:  source,
		metrics: metrics,
		hub:     newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// OnTransition implements machine.Observer
func (s *Server) OnTransition(t machine.Transition) {
	s.hub.broadcast(transitionMessage(t))
}

// Handler returns the monitor routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /events", s.handleEvents)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Start begins listening and serving in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New("monitor already started")
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Monitor listening", zap.String("addr", listener.Addr().String()))

	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Monitor stopped", zap.Error(err))
		}
	}(s.httpServer)
	return nil
}

// Addr returns the bound address, or "" before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GetActiveConnections returns the number of event stream clients
func (s *Server) GetActiveConnections() int {
	return s.hub.count()
}

// Shutdown stops accepting requests and closes event stream clients
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down monitor...")

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.hub.close(ctx)
	return err
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.source.Snapshot()); err != nil {
		logging.Error("Failed to encode status", zap.Error(err))
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	s.hub.serve(conn, func() Message {
		return snapshotMessage(s.source.Snapshot())
	})
}
