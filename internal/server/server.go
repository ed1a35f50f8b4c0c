// Package server provides the HTTP server of the Lumiere scene host.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lumiere-studio/lumiere/internal/capture"
	"github.com/lumiere-studio/lumiere/internal/imaging"
	"github.com/lumiere-studio/lumiere/internal/importer"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/server/api"
	"github.com/lumiere-studio/lumiere/internal/store"
)

// Config holds the server configuration. Routes whose dependencies are nil
// are not registered.
type Config struct {
	StaticDir    string
	Scene        *scene.Scene
	Store        *store.Store
	Importer     *importer.Client
	Placeholders *imaging.Placeholders
	Frames       *FrameHub
	Preview      *capture.Preview

	StreamFPS      int
	MaxUploadBytes int64
	MaxImageSize   int
}

// Server represents the HTTP server for the Lumiere application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	start   time.Time
	http    *http.Server
	library *api.Library
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Placeholders == nil {
		config.Placeholders = imaging.NewPlaceholders(512)
	}
	if config.MaxImageSize <= 0 {
		config.MaxImageSize = 1600
	}

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

	if sc := s.config.Scene; sc != nil {
		if s.config.Store != nil {
			s.library = api.NewLibrary(sc, s.config.Store, s.config.MaxImageSize)
		}
		s.mux.Handle("/api/layout", api.NewLayoutHandler(sc))
		s.mux.Handle("/api/control", api.NewControlHandler(sc, s.library))

		if lib := s.library; lib != nil {
			photos := api.NewPhotosHandler(sc, lib, s.config.Placeholders, s.config.MaxUploadBytes)
			s.mux.Handle("/api/photos", photos)
			s.mux.Handle("/api/photos/", photos)
			s.mux.Handle("/api/recordings", api.NewRecordingsHandler(sc, s.config.Store))

			if s.config.Importer != nil {
				s.mux.Handle("/api/import", api.NewImportHandler(s.config.Importer, lib))
			}
		}
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/frames", s.config.Frames)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview, s.config.StreamFPS))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Library returns the photo library, or nil when the server has no store.
func (s *Server) Library() *api.Library {
	return s.library
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

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.config.Frames != nil {
		response["clients"] = s.config.Frames.Clients()
	}
	if s.config.Scene != nil {
		response["frame"] = s.config.Scene.Latest().Seq
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address. It returns
// nil after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.Frames != nil {
		s.config.Frames.Close()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
