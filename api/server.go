// Package api exposes the service over HTTP REST.
//
// Endpoints:
//
//	GET    /health                      liveness probe
//	GET    /ready                       readiness probe (pings the database)
//	POST   /api/agents                  create agent
//	GET    /api/agents                  list agents
//	GET    /api/agents/{id}             get agent
//	PATCH  /api/agents/{id}             update agent
//	DELETE /api/agents/{id}             delete agent
//	POST   /api/sessions                create session
//	GET    /api/sessions                list sessions
//	GET    /api/sessions/{id}           get session
//	DELETE /api/sessions/{id}           delete session
//	POST   /api/sessions/{id}/messages  send message (runs the pipeline)
//	GET    /api/sessions/{id}/messages  list conversation turns
//
// File structure mirrors the endpoint groups: server.go (lifecycle),
// middleware.go, response.go, health.go, agent.go, session.go, chat.go.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopmind/shopmind/internal/chat"
	"github.com/shopmind/shopmind/internal/store"
)

const (
	// DefaultAddr is used when Run is given an empty address.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to stop Slowloris clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because a message exchange spans multiple
	// model calls.
	WriteTimeout = 120 * time.Second

	// IdleTimeout caps keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the REST API.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger

	health  *HealthHandler
	agent   *AgentHandler
	session *SessionHandler
	chat    *ChatHandler
}

// NewServer creates a server with all routes registered.
func NewServer(pool *pgxpool.Pool, st *store.Store, orchestrator *chat.Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		health:  NewHealthHandler(pool, logger),
		agent:   NewAgentHandler(st, logger),
		session: NewSessionHandler(st, logger),
		chat:    NewChatHandler(st, orchestrator, logger),
	}

	s.health.RegisterRoutes(mux)
	s.agent.RegisterRoutes(mux)
	s.session.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
