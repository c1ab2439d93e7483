package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/logpulse/internal/api/alerts"
	"github.com/good-yellow-bee/logpulse/internal/api/bookmarks"
	"github.com/good-yellow-bee/logpulse/internal/api/dashboard"
	"github.com/good-yellow-bee/logpulse/internal/api/logs"
	"github.com/good-yellow-bee/logpulse/internal/api/middleware"
	"github.com/good-yellow-bee/logpulse/internal/api/preferences"
	"github.com/good-yellow-bee/logpulse/internal/api/respond"
	"github.com/good-yellow-bee/logpulse/internal/api/stream"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	var ingestLimiter *middleware.RateLimiter
	if s.config.IngestRateLimit > 0 {
		ingestLimiter = middleware.NewRateLimiter(s.config.IngestRateLimit, s.config.IngestBurst)
	}

	// Global middleware
	r.Use(middleware.RequestLogger(s.logger, s.config.Verbose))
	r.Use(middleware.Instrument)
	r.Use(middleware.Recoverer(s.logger))
	r.Use(middleware.CORS(s.config.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)

	logHandler := logs.NewHandler(s.deps.Logs, s.deps.Ingester, s.config.MaxBodyBytes, s.logger)
	streamHandler := stream.NewHandler(s.deps.Hub, s.config.Stream, s.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/logs", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(ingestLimiter)).Post("/", logHandler.Ingest)
			r.Get("/", logHandler.Query)
			r.Get("/{id}", logHandler.Get)
		})
		r.Get("/export", logHandler.Export)

		r.Get("/alerts", alerts.NewHandler(s.deps.Alerts).List)
		r.Get("/dashboard", dashboard.NewHandler(s.deps.Logs).Summary)

		r.Route("/bookmarks", func(r chi.Router) {
			bookmarkHandler := bookmarks.NewHandler(s.deps.Logs, s.deps.Bookmarks)
			r.Post("/", bookmarkHandler.Create)
			r.Get("/", bookmarkHandler.List)
			r.Delete("/{id}", bookmarkHandler.Delete)
		})

		r.Route("/preferences/{userId}", func(r chi.Router) {
			prefHandler := preferences.NewHandler(s.deps.Preferences, s.logger)
			r.Get("/", prefHandler.Get)
			r.Post("/", prefHandler.Set)
			r.Put("/", prefHandler.Set)
		})

		r.Get("/ws", streamHandler.WebSocket)
		r.Get("/stream", streamHandler.SSE)
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.JSONError(w, respond.NewNotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.JSONError(w, &respond.Error{
			Code:    respond.ErrCodeBadRequest,
			Message: "method not allowed",
			Status:  http.StatusMethodNotAllowed,
		})
	})

	return r
}
