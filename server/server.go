// Package server exposes session memory over WebSocket. Every connection
// gets its own Cortex, so sessions never see each other's memories.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/cortex"
)

// CortexFactory builds the memory for a new session.
type CortexFactory func() (*cortex.Cortex, error)

type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCheckOrigin replaces the default same-origin check on upgrades.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

type Server struct {
	factory  CortexFactory
	upgrader websocket.Upgrader
	router   *mux.Router
	logger   *slog.Logger

	ctx     context.Context
	clients map[string]*client
	mu      sync.RWMutex
}

// New creates a server. ctx bounds every session; cancel it to stop
// in-flight embedder calls on shutdown.
func New(ctx context.Context, factory CortexFactory, opts ...Option) (*Server, error) {
	if factory == nil {
		return nil, core.Configurationf("server.New", "a cortex factory is required")
	}

	s := &Server{
		factory: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:  slog.Default(),
		ctx:     ctx,
		clients: map[string]*client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	s.router = mux.NewRouter()
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return s, nil
}

// Handler returns the HTTP handler serving /ws and /health.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the number of open connections.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	memory, err := s.factory()
	if err != nil {
		s.logger.Error("create session memory failed", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn, memory, s.logger)
	s.register(c)
	defer s.unregister(c)

	c.run(s.ctx)
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c.id] = c
	n := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("session opened", "session", c.id, "sessions", n)
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	n := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("session closed", "session", c.id, "memories", c.memory.Len(), "sessions", n)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
}
