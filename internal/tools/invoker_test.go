package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopmind/shopmind/internal/knowledge"
	"github.com/shopmind/shopmind/internal/log"
)

// mockSearcher implements Searcher for testing.
type mockSearcher struct {
	matches   []knowledge.Match
	err       error
	callCount int
	lastQuery string
	lastTopK  int
}

func (m *mockSearcher) Search(_ context.Context, query string, topK int) ([]knowledge.Match, error) {
	m.callCount++
	m.lastQuery = query
	m.lastTopK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.matches, nil
}

func newTestInvoker(t *testing.T, searcher Searcher) *Invoker {
	t.Helper()
	inv, err := NewInvoker(searcher, 3, log.NewNop())
	if err != nil {
		t.Fatalf("NewInvoker: %v", err)
	}
	return inv
}

// payloadJSON asserts the payload survives JSON serialization and returns it.
func payloadJSON(t *testing.T, res Result) []byte {
	t.Helper()
	data, err := json.Marshal(res.Payload)
	if err != nil {
		t.Fatalf("payload not JSON-serializable: %v", err)
	}
	return data
}

func TestInvoke_UnknownTool(t *testing.T) {
	t.Parallel()

	searcher := &mockSearcher{}
	inv := newTestInvoker(t, searcher)

	res := inv.Invoke(context.Background(), "order_pizza", json.RawMessage(`{}`))

	data := payloadJSON(t, res)
	if !strings.Contains(string(data), "unknown tool: order_pizza") {
		t.Errorf("expected unknown-tool payload, got %s", data)
	}
	if searcher.callCount != 0 {
		t.Error("searcher should not be contacted for unknown tools")
	}
	if len(res.Products) != 0 {
		t.Errorf("unexpected products: %+v", res.Products)
	}
}

func TestInvoke_MalformedArguments(t *testing.T) {
	t.Parallel()

	inv := newTestInvoker(t, &mockSearcher{})

	res := inv.Invoke(context.Background(), SearchKnowledgeBaseName, json.RawMessage(`{not json`))
	if _, ok := res.Payload["error"]; !ok {
		t.Errorf("expected error payload, got %+v", res.Payload)
	}
	payloadJSON(t, res)
}

func TestInvoke_EmptyQuery(t *testing.T) {
	t.Parallel()

	searcher := &mockSearcher{}
	inv := newTestInvoker(t, searcher)

	res := inv.Invoke(context.Background(), SearchKnowledgeBaseName, json.RawMessage(`{"query":"  "}`))
	if _, ok := res.Payload["error"]; !ok {
		t.Errorf("expected error payload for empty query, got %+v", res.Payload)
	}
	if searcher.callCount != 0 {
		t.Error("searcher should not run for an empty query")
	}
}

func TestInvoke_Success(t *testing.T) {
	t.Parallel()

	searcher := &mockSearcher{matches: []knowledge.Match{
		{ID: "doc-1", Metadata: map[string]any{"productId": "42", "name": "Widget"}, Similarity: 0.9},
		{ID: "doc-2", Metadata: map[string]any{"productId": "42"}, Similarity: 0.8},
	}}
	inv := newTestInvoker(t, searcher)

	res := inv.Invoke(context.Background(), SearchKnowledgeBaseName, json.RawMessage(`{"query":"widgets"}`))

	if searcher.lastQuery != "widgets" {
		t.Errorf("got query %q, want widgets", searcher.lastQuery)
	}
	if searcher.lastTopK != 3 {
		t.Errorf("got topK %d, want 3", searcher.lastTopK)
	}
	if res.Payload["message"] != "Found 2 matching documents" {
		t.Errorf("got message %v", res.Payload["message"])
	}
	// Duplicate identifier across documents reconciles to one product,
	// keeping the real name.
	if len(res.Products) != 1 {
		t.Fatalf("got %d products, want 1: %+v", len(res.Products), res.Products)
	}
	if res.Products[0].ProductID != "42" || res.Products[0].Name != "Widget" {
		t.Errorf("got %+v", res.Products[0])
	}
	payloadJSON(t, res)
}

func TestInvoke_SearchFailureBecomesPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantHint string
	}{
		{
			name:     "backend not provisioned",
			err:      knowledge.ErrUnavailable,
			wantHint: "not installed",
		},
		{
			name:     "embedding failure",
			err:      &knowledge.EmbeddingError{Err: errors.New("api key rejected")},
			wantHint: "embedded",
		},
		{
			name:     "missing configuration",
			err:      errors.New("vector store: missing configuration"),
			wantHint: "missing configuration",
		},
		{
			name:     "transient failure",
			err:      &knowledge.QueryError{Err: errors.New("connection reset")},
			wantHint: "network or backend issue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv := newTestInvoker(t, &mockSearcher{err: tt.err})
			res := inv.Invoke(context.Background(), SearchKnowledgeBaseName, json.RawMessage(`{"query":"widgets"}`))

			if _, ok := res.Payload["error"]; !ok {
				t.Fatalf("expected error payload, got %+v", res.Payload)
			}
			hint, _ := res.Payload["hint"].(string)
			if !strings.Contains(hint, tt.wantHint) {
				t.Errorf("hint %q does not contain %q", hint, tt.wantHint)
			}
			payloadJSON(t, res)
		})
	}
}
