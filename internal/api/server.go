// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

/*
Package api assembles the chi router, the middleware chain, and the domain
handlers into a runnable [http.Server].

It is the transport composition root: domain packages expose Handler types,
this package decides where they mount and which middleware wraps them. Only
api and cmd/api touch net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wikara/wikara/internal/auth"
	"github.com/wikara/wikara/internal/platform/config"
	"github.com/wikara/wikara/internal/platform/constants"
	"github.com/wikara/wikara/internal/platform/middleware"
	"github.com/wikara/wikara/internal/wiki"
)

// # Server Definitions

// Server owns the router and the underlying [http.Server]. Built once in
// main.go; everything it needs arrives through [NewServer].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers collects the handler set of every domain the server exposes.
// A new domain means a new field here and one RegisterRoutes call below.
type Handlers struct {
	// Liveness answers /health: 200 whenever the process runs.
	Liveness http.HandlerFunc

	// Readiness answers /ready: 200 only while postgres and redis respond.
	Readiness http.HandlerFunc

	// Auth serves account endpoints (register, login, me).
	Auth *auth.Handler

	// Topic serves the wiki graph: topics, versions, locks, nascents.
	Topic *wiki.Handler
}

// # Server Initialization

// NewServer builds the router, applies the middleware chain, and mounts
// every route group.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Order matters: tracing and logging wrap everything else.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Probe endpoints stay outside auth so orchestrators can reach them.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		h.Auth.RegisterRoutes(api)
		h.Topic.RegisterRoutes(api)
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
