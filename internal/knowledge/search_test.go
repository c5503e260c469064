package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/shopmind/shopmind/internal/log"
	"github.com/shopmind/shopmind/internal/retry"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedErr    error
	returnEmpty bool
	embeddings  []float32
	callCount   int
	lastInput   string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(api.Registry) {}

func (m *mockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastInput = req.Input[0].Content[0].Text
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.returnEmpty {
		return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: []float32{}}}}, nil
	}
	embeddings := m.embeddings
	if embeddings == nil {
		embeddings = []float32{0.1, 0.2, 0.3}
	}
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: embeddings}}}, nil
}

// mockBackend implements Backend for testing.
type mockBackend struct {
	matches   []Match
	errs      []error // consumed one per call; nil entry means success
	callCount int
	lastLimit int32
}

func (m *mockBackend) MatchDocuments(_ context.Context, _ pgvector.Vector, limit int32) ([]Match, error) {
	idx := m.callCount
	m.callCount++
	m.lastLimit = limit
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	return m.matches, nil
}

func newTestSearcher(t *testing.T, embedder ai.Embedder, backend Backend) *Searcher {
	t.Helper()
	s, err := NewSearcher(embedder, backend, retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, log.NewNop())
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	return s
}

func TestSearch_EmptyQuerySkipsEmbedding(t *testing.T) {
	t.Parallel()

	for _, query := range []string{"", "   ", "\n\t "} {
		embedder := &mockEmbedder{}
		backend := &mockBackend{}
		s := newTestSearcher(t, embedder, backend)

		matches, err := s.Search(context.Background(), query, 3)
		if err != nil {
			t.Errorf("query %q: unexpected error: %v", query, err)
		}
		if len(matches) != 0 {
			t.Errorf("query %q: expected no matches, got %d", query, len(matches))
		}
		if embedder.callCount != 0 {
			t.Errorf("query %q: embedding provider should not be contacted", query)
		}
		if backend.callCount != 0 {
			t.Errorf("query %q: backend should not be contacted", query)
		}
	}
}

func TestSearch_EmptyEmbeddingReturnsEmpty(t *testing.T) {
	t.Parallel()

	embedder := &mockEmbedder{returnEmpty: true}
	backend := &mockBackend{}
	s := newTestSearcher(t, embedder, backend)

	matches, err := s.Search(context.Background(), "widgets", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
	if backend.callCount != 0 {
		t.Error("backend should not be contacted when the embedding is empty")
	}
}

func TestSearch_EmbedderFailure(t *testing.T) {
	t.Parallel()

	embedder := &mockEmbedder{embedErr: errors.New("provider exploded")}
	s := newTestSearcher(t, embedder, &mockBackend{})

	_, err := s.Search(context.Background(), "widgets", 3)
	var embErr *EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *EmbeddingError, got %v", err)
	}
}

func TestSearch_Success(t *testing.T) {
	t.Parallel()

	want := []Match{
		{ID: "doc-1", Content: "Widget specs", Similarity: 0.92},
		{ID: "doc-2", Content: "Gadget specs", Similarity: 0.81},
	}
	backend := &mockBackend{matches: want}
	s := newTestSearcher(t, &mockEmbedder{}, backend)

	matches, err := s.Search(context.Background(), "widgets", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].ID != "doc-1" || matches[1].ID != "doc-2" {
		t.Errorf("order not preserved: %+v", matches)
	}
	if backend.lastLimit != 5 {
		t.Errorf("got limit %d, want 5", backend.lastLimit)
	}
}

func TestSearch_TransientBackendFailureRetried(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{
		matches: []Match{{ID: "doc-1"}},
		errs:    []error{errors.New("connection reset"), nil},
	}
	s := newTestSearcher(t, &mockEmbedder{}, backend)

	matches, err := s.Search(context.Background(), "widgets", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.callCount != 2 {
		t.Errorf("got %d backend calls, want 2", backend.callCount)
	}
	if len(matches) != 1 {
		t.Errorf("got %d matches, want 1", len(matches))
	}
}

func TestSearch_MissingFunctionClassifiedUnavailable(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{
		Code:    "42883",
		Message: "function match_documents(vector, integer) does not exist",
	}
	backend := &mockBackend{errs: []error{pgErr, pgErr, pgErr}}
	s := newTestSearcher(t, &mockEmbedder{}, backend)

	_, err := s.Search(context.Background(), "widgets", 3)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// "does not exist" is a permanent marker: exactly one attempt.
	if backend.callCount != 1 {
		t.Errorf("got %d backend calls, want 1", backend.callCount)
	}
}

func TestSearch_TransientFailureClassifiedQueryError(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend timeout")
	backend := &mockBackend{errs: []error{boom, boom, boom}}
	s := newTestSearcher(t, &mockEmbedder{}, backend)

	_, err := s.Search(context.Background(), "widgets", 3)
	var qErr *QueryError
	if !errors.As(err, &qErr) {
		t.Fatalf("expected *QueryError, got %v", err)
	}
	if backend.callCount != 3 {
		t.Errorf("got %d backend calls, want 3 (retries exhausted)", backend.callCount)
	}
}

func TestClassifyBackendError_TextualMissingFunction(t *testing.T) {
	t.Parallel()

	err := classifyBackendError(errors.New(`rpc match_documents does not exist in schema cache`))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
