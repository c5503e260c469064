// Package app wires the application together: configuration, logging,
// database pool, Genkit provider, knowledge search, and the conversation
// orchestrator.
package app

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopmind/shopmind/internal/chat"
	"github.com/shopmind/shopmind/internal/config"
	"github.com/shopmind/shopmind/internal/knowledge"
	"github.com/shopmind/shopmind/internal/store"
	"github.com/shopmind/shopmind/internal/tools"
)

// App is the application container. Build one with Setup and release it
// with Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Store        *store.Store
	Searcher     *knowledge.Searcher
	Invoker      *tools.Invoker
	Orchestrator *chat.Orchestrator

	cancel context.CancelFunc
}

// Close gracefully releases all resources.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.cancel != nil {
		a.cancel()
	}
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database pool closed")
	}
	return nil
}
