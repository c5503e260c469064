package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Backend performs vector similarity search over stored documents.
// Interfaces are defined by the consumer; Searcher depends on this
// abstraction so tests can substitute an in-memory implementation.
type Backend interface {
	// MatchDocuments returns up to limit documents ordered by descending
	// similarity to the given query embedding.
	MatchDocuments(ctx context.Context, embedding pgvector.Vector, limit int32) ([]Match, error)
}

// PGBackend implements Backend over PostgreSQL + pgvector through the
// match_documents SQL function installed by the schema migrations.
//
// PGBackend is safe for concurrent use by multiple goroutines.
type PGBackend struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPGBackend creates a PGBackend. A nil logger falls back to slog.Default.
func NewPGBackend(pool *pgxpool.Pool, logger *slog.Logger) *PGBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGBackend{pool: pool, logger: logger}
}

// MatchDocuments queries the match_documents function.
//
// When the function is not installed, Postgres reports SQLSTATE 42883
// ("function ... does not exist"); the raw error is returned unclassified
// so the caller can decide between "misconfigured" and "transient".
func (b *PGBackend) MatchDocuments(ctx context.Context, embedding pgvector.Vector, limit int32) ([]Match, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, content, metadata, similarity FROM match_documents($1, $2)`,
		embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("match_documents query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m        Match
			metadata []byte
		)
		if err := rows.Scan(&m.ID, &m.Content, &metadata, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
				b.logger.Warn("failed to parse document metadata", "document_id", m.ID, "error", err)
				m.Metadata = map[string]any{}
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading match rows: %w", err)
	}

	return matches, nil
}
