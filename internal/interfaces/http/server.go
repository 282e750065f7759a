// Package http exposes the read-only ZoneRun surface: the latest ranked
// zone snapshot, health, Prometheus metrics and a websocket event stream.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Server is the read-only HTTP server.
type Server struct {
	router *mux.Router
	server *http.Server
}

// ServerConfig holds server options.
type ServerConfig struct {
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns local-only defaults.
func DefaultServerConfig(listen string) ServerConfig {
	return ServerConfig{
		Listen:       listen,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Deps are the collaborators the server reads from.
type Deps struct {
	Snapshots      LatestSource
	Hub            *EventHub
	MetricsHandler http.Handler
}

// LatestSource yields the latest snapshot as a JSON-marshalable value, or
// nil before the first bar.
type LatestSource interface {
	LatestSnapshot() interface{}
}

// NewServer assembles the router and handlers.
func NewServer(cfg ServerConfig, deps Deps) *Server {
	router := mux.NewRouter()
	s := &Server{
		router: router,
		server: &http.Server{
			Addr:         cfg.Listen,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/zones", s.handleZones(deps.Snapshots)).Methods(http.MethodGet)
	if deps.MetricsHandler != nil {
		router.Handle("/metrics", deps.MetricsHandler).Methods(http.MethodGet)
	}
	if deps.Hub != nil {
		router.Handle("/ws/events", deps.Hub).Methods(http.MethodGet)
	}
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleZones(src LatestSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := src.LatestSnapshot()
		if snap == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
