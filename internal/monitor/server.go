// Package monitor exposes the engine over a read-only local HTTP surface:
// the latest computed signal as JSON, a health probe, and the Prometheus
// metrics. The signal is recomputed in the background on a fixed cadence so
// handlers never trigger upstream fetches.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/wfairbank/glidepath/internal/telemetry/metrics"
)

// Snapshot is one computed engine state served at /signal.
type Snapshot struct {
	Ticker           string    `json:"ticker"`
	AsOf             time.Time `json:"as_of"`
	Posture          string    `json:"posture"`
	Bullish          int       `json:"bullish_components"`
	Total            int       `json:"total_components"`
	MeanDistance     float64   `json:"mean_distance_pct"`
	PrimaryDistance  float64   `json:"primary_distance_pct"`
	RecommendedRate  float64   `json:"recommended_rate_pct"`
	ConservativeRate float64   `json:"conservative_rate_pct"`
	Action           string    `json:"action"`
	ComputedAt       time.Time `json:"computed_at"`
}

// Refresher recomputes the snapshot from live data.
type Refresher func(ctx context.Context) (Snapshot, error)

// Config holds the server settings.
type Config struct {
	Host         string
	Port         int
	Refresh      time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns the local-only defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8090,
		Refresh:      6 * time.Hour,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the read-only monitor HTTP server.
type Server struct {
	router  *mux.Router
	server  *http.Server
	cfg     Config
	refresh Refresher
	log     zerolog.Logger
	started time.Time

	mu       sync.RWMutex
	snapshot Snapshot
	lastErr  error
}

// New creates the server and verifies the port is bindable.
func New(cfg Config, reg *metrics.Registry, refresh Refresher, log zerolog.Logger) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d is busy or unavailable: %w", cfg.Port, err)
	}
	listener.Close()

	s := &Server{
		router:  mux.NewRouter(),
		cfg:     cfg,
		refresh: refresh,
		log:     log,
		started: time.Now(),
	}
	s.setupRoutes(reg)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes(reg *metrics.Registry) {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)

	s.router.Handle("/metrics", reg.Handler()).Methods("GET")

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/signal", s.handleSignal).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(handleNotFound)
}

// Run refreshes the snapshot on the configured cadence and serves until ctx
// is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.refreshLoop(loopCtx)

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info().
			Str("health", fmt.Sprintf("http://%s/health", s.server.Addr)).
			Str("signal", fmt.Sprintf("http://%s/signal", s.server.Addr)).
			Str("metrics", fmt.Sprintf("http://%s/metrics", s.server.Addr)).
			Msg("monitor endpoints available")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("monitor server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("monitor shutdown: %w", err)
	}
	s.log.Info().Msg("monitor server shutdown complete")
	return nil
}

// Address returns the listen address.
func (s *Server) Address() string { return s.server.Addr }

func (s *Server) refreshLoop(ctx context.Context) {
	s.refreshOnce(ctx)
	ticker := time.NewTicker(s.cfg.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshOnce(ctx)
		}
	}
}

func (s *Server) refreshOnce(ctx context.Context) {
	snap, err := s.refresh(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.log.Error().Err(err).Msg("signal refresh failed")
		return
	}
	snap.ComputedAt = time.Now()
	s.snapshot = snap
	s.lastErr = nil
	s.log.Info().Str("posture", snap.Posture).Time("as_of", snap.AsOf).Msg("signal refreshed")
}

// setSnapshot seeds the state directly. Tests use it to avoid the loop.
func (s *Server) setSnapshot(snap Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.lastErr = err
}

type healthResponse struct {
	Status      string    `json:"status"`
	UptimeSecs  float64   `json:"uptime_secs"`
	LastRefresh time.Time `json:"last_refresh"`
	LastError   string    `json:"last_error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap, lastErr := s.snapshot, s.lastErr
	s.mu.RUnlock()

	resp := healthResponse{
		Status:      "healthy",
		UptimeSecs:  time.Since(s.started).Seconds(),
		LastRefresh: snap.ComputedAt,
	}
	status := http.StatusOK
	if lastErr != nil {
		resp.Status = "degraded"
		resp.LastError = lastErr.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	if snap.ComputedAt.IsZero() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "signal not yet computed",
		})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		s.log.Debug().
			Str("request_id", wrapper.Header().Get("X-Request-ID")).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("elapsed", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// corsMiddleware allows only localhost origins; the surface is local-only.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
