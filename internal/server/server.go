// Package server provides the HTTP surface of the instrument: engine
// control, settings, the session log, the live HUD and the camera preview.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/airsynth/internal/capture"
	"github.com/ayusman/airsynth/internal/instrument"
	"github.com/ayusman/airsynth/internal/server/api"
	"github.com/ayusman/airsynth/internal/store"
)

// Config holds the server configuration. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir  string
	Instrument *instrument.Instrument
	Store      *store.Store
	Preview    *capture.FrameBuffer
	Metrics    http.Handler
	// Context bounds instruments started over HTTP. Defaults to Background.
	Context context.Context
}

// Server routes HTTP requests for the instrument.
type Server struct {
	config Config
	mux    *http.ServeMux
	hud    *HUDHandler
	start  time.Time
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	if config.Context == nil {
		config.Context = context.Background()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Instrument != nil {
		engineHandler := api.NewEngineHandler(s.config.Context, s.config.Instrument)
		s.mux.Handle("/api/state", engineHandler)
		s.mux.Handle("/api/engine/", engineHandler)

		s.hud = NewHUDHandler(s.config.Instrument, HUDInterval)
		s.mux.Handle("/api/hud", s.hud)
	}

	if s.config.Store != nil {
		sessionHandler := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionHandler)
		s.mux.Handle("/api/sessions/", sessionHandler)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Instrument != nil {
		response["engine"] = s.config.Instrument.Engine().State().String()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops background broadcasters.
func (s *Server) Close() {
	if s.hud != nil {
		s.hud.Close()
	}
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
