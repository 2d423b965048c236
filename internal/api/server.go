// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/server are allowed to import net/http server primitives.

Route layout:

	/health, /ready, /metrics      probes, never gated past the blacklist
	/media/{grant}/...             static files, grant folder must exist
	/api/v1/auth/login             rate limited, no token
	/api/v1/{manga,videos,...}     rate limited, bearer token required
	/api/v1/catalog/{kind}         rate limited, bearer token required
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/mediavault/internal/auth"
	"github.com/taibuivan/mediavault/internal/catalog"
	"github.com/taibuivan/mediavault/internal/gate"
	"github.com/taibuivan/mediavault/internal/media"
	"github.com/taibuivan/mediavault/internal/platform/config"
	"github.com/taibuivan/mediavault/internal/platform/constants"
	"github.com/taibuivan/mediavault/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler; it returns 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; it returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Metrics exposes the Prometheus registry. Optional.
	Metrics http.Handler

	// Gate is the client gating pipeline shared by every route.
	Gate *gate.Pipeline

	// Auth handles the login exchange.
	Auth *auth.Handler

	// Media serves the indexed manga, video and subtitle listings.
	Media *media.Handler

	// Catalog serves title metadata. Optional.
	Catalog *catalog.Handler

	// GrantRoot is the directory holding the per-token grant folders.
	GrantRoot string
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// The blacklist check runs before anything else that does work on the
	// request, so a banned client costs one set lookup.
	r.Use(middleware.RequestID())
	r.Use(h.Gate.Identify)
	r.Use(h.Gate.RejectBlacklisted)
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	// # Static Media
	// Served straight from the grant folders. Streaming responses carry no timeout.
	files := http.StripPrefix("/media", http.FileServer(http.Dir(h.GrantRoot)))
	r.Handle("/media/*", h.Gate.ServeGrants(files))

	// # Application API
	// Every API outcome feeds the reputation store, and every API request
	// spends one unit of the client's rate budget.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(chimw.Timeout(constants.GlobalRequestTimeout))
		api.Use(h.Gate.RecordOutcome)
		api.Use(h.Gate.RateLimit())

		api.Mount("/auth", h.Auth.Routes())

		api.Group(func(protected chi.Router) {
			protected.Use(h.Gate.Authenticate)

			h.Media.RegisterRoutes(protected)
			if h.Catalog != nil {
				protected.Mount("/catalog", h.Catalog.Routes())
			}
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
