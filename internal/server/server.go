// Package server serves a build output directory over HTTP for local
// preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config holds server configuration.
type Config struct {
	Port     int
	Dir      string // build output directory to serve
	AllowAll bool   // allow all CORS origins
	// LiveReload injects a script into served pages that reloads them after
	// each RecordBuild.
	LiveReload bool
}

// Server is the preview server.
type Server struct {
	cfg        Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	hub        *hub

	mu        sync.RWMutex
	lastBuild buildStatus
}

type buildStatus struct {
	ID      string `json:"build_id,omitempty"`
	At      string `json:"built_at,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
	Message string `json:"error,omitempty"`
}

// New creates a server for cfg.Dir. A nil logger discards.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{cfg: cfg, logger: logger, hub: newHub()}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)

	// Everything else is a file from the output directory; "/" maps to
	// index.html.
	var files http.Handler = http.FileServer(http.Dir(s.cfg.Dir))
	if s.cfg.LiveReload {
		r.Get("/livereload", s.handleLiveReload)
		r.Get("/livereload.js", handleLiveReloadJS)
		files = injectLiveReload(s.cfg.Dir, files)
	}
	r.Handle("/*", files)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.lastBuild
	s.mu.RUnlock()

	body := struct {
		Status string `json:"status"`
		buildStatus
	}{Status: "ok", buildStatus: st}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

// RecordBuild updates the build status reported by /healthz and tells
// live-reloading pages about it. A non-nil err marks the most recent build as
// failed.
func (s *Server) RecordBuild(buildID string, err error) {
	st := buildStatus{ID: buildID, At: time.Now().UTC().Format(time.RFC3339)}
	if err != nil {
		st.Failed = true
		st.Message = err.Error()
	}
	s.mu.Lock()
	s.lastBuild = st
	s.mu.Unlock()

	if err != nil {
		s.hub.broadcast(reloadMessage{Type: "error", Error: st.Message})
		return
	}
	s.hub.broadcast(reloadMessage{Type: "reload", BuildID: buildID})
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Addr is the listen address derived from the configured port.
func (s *Server) Addr() string { return fmt.Sprintf(":%d", s.cfg.Port) }

// Start listens on the configured port and blocks until the server stops.
// It returns nil after Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("preview server listening", "addr", ln.Addr().String(), "dir", s.cfg.Dir)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	return s.httpServer.Shutdown(ctx)
}
