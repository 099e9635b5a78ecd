package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/wczubal1/GreenAgentWitty/internal/metrics"
)

// Server is the read-only HTTP surface: health, Prometheus metrics, and
// the latest run verdict. It never mutates grading state.
type Server struct {
	router  *mux.Router
	server  *http.Server
	metrics *metrics.Registry

	mu        sync.RWMutex
	latest    interface{}
	breakerFn func() string
}

// Config holds server bind settings. Local-only by default.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// NewServer wires the router. breakerFn reports transport circuit state
// for health output; it may be nil.
func NewServer(config Config, reg *metrics.Registry, breakerFn func() string) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		metrics:   reg,
		breakerFn: breakerFn,
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/runs/latest", s.handleLatest).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// SetLatest publishes the most recent run verdict document.
func (s *Server) SetLatest(verdict interface{}) {
	s.mu.Lock()
	s.latest = verdict
	s.mu.Unlock()
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if s.breakerFn != nil {
		health["candidate_breaker"] = s.breakerFn()
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed runs"})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
