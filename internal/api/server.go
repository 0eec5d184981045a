// Package api provides the thin HTTP dashboard over the snapshot store.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apperrors "github.com/account-tracker/internal/errors"
	"github.com/account-tracker/internal/models"
)

// SnapshotReader is the read-only view of the store the dashboard needs.
type SnapshotReader interface {
	All(ctx context.Context) ([]models.Snapshot, error)
	Latest(ctx context.Context) (*models.Snapshot, error)
}

// Renderer produces the chart page from a snapshot series.
type Renderer interface {
	Render(series []models.Snapshot) ([]byte, error)
}

// Server serves the rendered chart and a JSON snapshot API. No logic of
// interest lives here; it is a rendering wrapper over the store.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	store      SnapshotReader
	renderer   Renderer
	logger     zerolog.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host string
	Port string
}

// NewServer creates a new dashboard server.
func NewServer(cfg *ServerConfig, store SnapshotReader, renderer Renderer, logger zerolog.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		store:    store,
		renderer: renderer,
		logger:   logger,
	}

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/", s.handleChart).Methods("GET")
	s.router.HandleFunc("/api/snapshots", s.handleSnapshots).Methods("GET")
	s.router.HandleFunc("/api/snapshots/latest", s.handleLatest).Methods("GET")

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router (used by tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting dashboard server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down dashboard server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "account-tracker",
	})
}

// handleChart renders the chart page live from the store.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	series, err := s.store.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read snapshots")
		return
	}

	page, err := s.renderer.Render(series)
	if err != nil {
		if errors.Is(err, apperrors.ErrNothingToRender) {
			respondError(w, http.StatusNotFound, "no data recorded yet")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// handleSnapshots returns the full ordered series as JSON.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	series, err := s.store.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read snapshots")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(series),
		"snapshots": series,
	})
}

// handleLatest returns the most recent snapshot.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.Latest(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read snapshots")
		return
	}
	if latest == nil {
		respondError(w, http.StatusNotFound, "no data recorded yet")
		return
	}
	respondJSON(w, http.StatusOK, latest)
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error().Interface("panic", err).Msg("handler panicked")
				respondError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
