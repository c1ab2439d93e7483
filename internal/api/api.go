// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/logpulse/internal/alerting"
	"github.com/good-yellow-bee/logpulse/internal/api/health"
	"github.com/good-yellow-bee/logpulse/internal/api/logs"
	"github.com/good-yellow-bee/logpulse/internal/api/stream"
	"github.com/good-yellow-bee/logpulse/internal/hub"
	"github.com/good-yellow-bee/logpulse/internal/storage"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address        string
	AllowedOrigins []string
	// IngestRateLimit is the per-client POST /api/v1/logs rate in
	// requests per second; 0 disables limiting.
	IngestRateLimit float64
	IngestBurst     int
	MaxBodyBytes    int64
	Stream          stream.Options
	Version         string
	Verbose         bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = logs.DefaultMaxBodyBytes
	}
	if c.Stream.AllowedOrigins == nil {
		c.Stream.AllowedOrigins = c.AllowedOrigins
	}
}

// Deps are the components the API serves.
type Deps struct {
	Logs        storage.LogStore
	Bookmarks   storage.BookmarkStore
	Preferences storage.PreferenceStore
	Ingester    logs.Ingester
	Alerts      *alerting.History
	Hub         *hub.Hub
}

func (d *Deps) validate() error {
	switch {
	case d.Logs == nil:
		return fmt.Errorf("log store is required")
	case d.Bookmarks == nil:
		return fmt.Errorf("bookmark store is required")
	case d.Preferences == nil:
		return fmt.Errorf("preference store is required")
	case d.Ingester == nil:
		return fmt.Errorf("ingester is required")
	case d.Alerts == nil:
		return fmt.Errorf("alert history is required")
	case d.Hub == nil:
		return fmt.Errorf("hub is required")
	}
	return nil
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	deps          Deps
	server        *http.Server
	handler       http.Handler
	healthHandler *health.Handler
	logger        logrus.FieldLogger
}

// New creates a new API server.
func New(cfg *Config, deps Deps, logger logrus.FieldLogger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		deps:          deps,
		healthHandler: health.NewHandler(cfg.Version),
		logger:        logger,
	}
	s.handler = s.setupRouter()

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: the push endpoints hold connections open and
		// bound each write themselves.
		IdleTimeout: 60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	log := s.logger.WithField("component", "api")
	errChan := make(chan error, 1)

	go func() {
		log.WithField("address", s.config.Address).Info("HTTP API listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down HTTP API server")
		// Close push subscribers first so their handlers return and
		// Shutdown does not wait on them.
		s.deps.Hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}
