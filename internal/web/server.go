// Package web provides a lightweight web dashboard.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/util"
)

// Server is the web server.
type Server struct {
	db       *storage.DB
	config   *util.Config
	port     int
	srv      *http.Server
	metrics  http.Handler
	settings func() model.UserSettings
}

// NewServer creates a new web server.
func NewServer(db *storage.DB, cfg *util.Config, port int) *Server {
	return &Server{
		db:      db,
		config:  cfg,
		port:    port,
		metrics: promhttp.Handler(),
	}
}

// SetMetricsHandler replaces the /metrics handler, e.g. with the daemon's
// own registry when both run in one process.
func (s *Server) SetMetricsHandler(h http.Handler) {
	if h != nil {
		s.metrics = h
	}
}

// SetSettingsSource makes the handlers read settings from fn instead of the
// copy taken from the config at startup. fn is called concurrently.
func (s *Server) SetSettingsSource(fn func() model.UserSettings) {
	s.settings = fn
}

// Routes returns the server's handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	h := NewHandlers(s.db, s.config)
	if s.settings != nil {
		h.settings = s.settings
	}
	analytics := NewAnalyticsHandlers(s.db)
	feed := NewFeed(storage.NewDecisionStorage(s.db), s.config.HeartbeatInterval)

	mux.HandleFunc("/", h.Dashboard)
	mux.HandleFunc("/api/status", h.APIGetStatus)
	mux.HandleFunc("/api/decisions", h.APIGetDecisions)
	mux.HandleFunc("/api/decisions/latest", h.APIGetLatestDecision)
	mux.HandleFunc("/api/probation", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.APIAddProbation(w, r)
		} else {
			h.APIGetProbation(w, r)
		}
	})
	mux.HandleFunc("/api/probation/", h.APIDeleteProbation)
	mux.HandleFunc("/api/suggestions", h.APIGetSuggestions)
	mux.HandleFunc("/api/settings", h.APIGetSettings)
	mux.HandleFunc("/api/analytics/topology", analytics.GetTopology)
	mux.HandleFunc("/api/analytics/signal", analytics.GetSignalTrend)
	mux.HandleFunc("/api/analytics/mermaid", analytics.MermaidDiagram)
	mux.HandleFunc("/report", h.DownloadReport)
	mux.Handle("/metrics", s.metrics)
	mux.Handle("/ws", feed)

	return mux
}

// Start starts the web server and blocks until it shuts down.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.srv.Shutdown(ctx)
	}()

	util.Info("Web server starting on port %d", s.port)

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop stops the web server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.srv.Shutdown(ctx)
}
