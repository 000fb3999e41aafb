// Package server provides the local status API of mudra: health, loaded
// gestures, the key mapping and a websocket stream of loop events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	Templates []gesture.Template
	// Mappings persists mapping updates. Nil disables the mapping routes.
	Mappings store.Repository
	// Mapping is the record the loop started with.
	Mapping store.MappingRecord
	// OnMappingChange receives every saved mapping.
	OnMappingChange func(*action.Mapping)
	Events          *EventHub
	Logger          *slog.Logger
}

// Server represents the HTTP status server.
type Server struct {
	config Config
	router chi.Router
	logger *slog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	gestures := api.NewGestureHandler(s.config.Templates)
	r.Route("/api/gestures", func(r chi.Router) {
		r.Get("/", gestures.List)
		r.Get("/{name}", gestures.Get)
	})

	if s.config.Mappings != nil {
		mapping := api.NewMappingHandler(s.config.Mappings, s.config.Mapping, s.config.OnMappingChange, s.logger)
		r.Get("/api/mapping", mapping.Get)
		r.Put("/api/mapping", mapping.Put)
	}

	if s.config.Events != nil {
		r.Get("/api/events", s.config.Events.ServeHTTP)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "ok",
		"uptime":    time.Since(s.start).String(),
		"templates": len(s.config.Templates),
	}
	if s.config.Events != nil {
		response["clients"] = s.config.Events.Clients()
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.config.Events != nil {
		s.config.Events.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
