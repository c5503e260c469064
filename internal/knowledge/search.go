// Package knowledge provides semantic retrieval over the product knowledge
// base: query embedding via the configured AI provider and top-K vector
// similarity search against PostgreSQL + pgvector.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/shopmind/shopmind/internal/retry"
)

// DefaultTopK bounds a search when the caller passes a non-positive limit.
const DefaultTopK = 3

// Searcher performs semantic search over the knowledge base.
//
// Searcher is safe for concurrent use by multiple goroutines.
type Searcher struct {
	embedder ai.Embedder
	backend  Backend
	retry    retry.Config
	logger   *slog.Logger
}

// NewSearcher creates a Searcher. The zero retry.Config uses package
// defaults; a nil logger falls back to slog.Default.
func NewSearcher(embedder ai.Embedder, backend Backend, retryCfg retry.Config, logger *slog.Logger) (*Searcher, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		embedder: embedder,
		backend:  backend,
		retry:    retryCfg,
		logger:   logger,
	}, nil
}

// Search returns at most topK documents ordered by descending similarity
// to the query.
//
// An empty or whitespace-only query yields an empty result, not an error.
// Backend failures are classified: a missing match_documents function
// surfaces as ErrUnavailable, everything else as *QueryError. Transient
// backend failures are retried with exponential backoff before either
// classification is applied.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := Embed(ctx, s.embedder, query)
	if err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		s.logger.Debug("empty embedding for query, skipping search", "query_length", len(query))
		return nil, nil
	}

	vec := pgvector.NewVector(embedding)
	matches, err := retry.Do(ctx, s.retry, s.logger, func(ctx context.Context) ([]Match, error) {
		return s.backend.MatchDocuments(ctx, vec, int32(topK)) // #nosec G115 -- topK is a small caller-supplied bound
	})
	if err != nil {
		return nil, classifyBackendError(err)
	}

	s.logger.Debug("knowledge search completed",
		"query_length", len(query),
		"matches", len(matches),
	)
	return matches, nil
}

// classifyBackendError distinguishes "the similarity function is not
// provisioned" from transient backend failures once retries are exhausted.
func classifyBackendError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedFunction {
		return fmt.Errorf("%w: %s", ErrUnavailable, pgErr.Message)
	}
	// Non-Postgres backends report the same condition only via message text.
	msg := err.Error()
	if strings.Contains(msg, "match_documents") && strings.Contains(msg, "does not exist") {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &QueryError{Err: err}
}
