// Package server provides the HTTP server for the poseguard gesture check.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/server/api"
	"github.com/ayusman/poseguard/internal/store"
)

// Pipeline is what the server needs from the running application.
type Pipeline interface {
	api.Pipeline
	LatestFrame() (gocv.Mat, bool)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  Pipeline
}

// Server represents the HTTP server for the poseguard application.
type Server struct {
	config    Config
	mux       *http.ServeMux
	start     time.Time
	landmarks *LandmarksHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		confirmations := api.NewConfirmationHandler(s.config.Store)
		s.mux.Handle("/api/confirmations", confirmations)
		s.mux.Handle("/api/confirmations/", confirmations)
	}

	if s.config.Pipeline != nil {
		state := api.NewStateHandler(s.config.Pipeline)
		s.mux.Handle("/api/state", state)
		s.mux.Handle("/api/reset", state)
		s.mux.Handle("/api/viewport", state)
		s.mux.Handle("/api/camera", state)

		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Pipeline))

		s.landmarks = NewLandmarksHandler(s.config.Pipeline)
		s.mux.Handle("/api/landmarks", s.landmarks)
	}

	// Serve static files if StaticDir is configured
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

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops background broadcasters.
func (s *Server) Close() {
	if s.landmarks != nil {
		s.landmarks.Close()
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
