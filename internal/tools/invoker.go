// Package tools dispatches model-requested tool calls to their
// implementations.
//
// A tool call never fails from the orchestrator's point of view: every
// outcome, including errors, becomes a JSON-serializable payload that is
// handed back to the model as the tool response, so the model can see and
// react to a failed lookup.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/shopmind/shopmind/internal/knowledge"
	"github.com/shopmind/shopmind/internal/product"
)

// SearchKnowledgeBaseName is the declared name of the knowledge-base
// search tool.
const SearchKnowledgeBaseName = "search_knowledge_base"

// DefaultTopK bounds a knowledge search when the invoker is constructed
// without an explicit limit.
const DefaultTopK = 3

// SearchInput is the argument schema for search_knowledge_base.
type SearchInput struct {
	Query string `json:"query" jsonschema_description:"The search query string"`
}

// Searcher is the knowledge-search dependency of the Invoker.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]knowledge.Match, error)
}

// Result is the outcome of one tool invocation: the payload serialized for
// the model, plus the structured products extracted along the way as a
// side channel for the orchestrator.
type Result struct {
	Payload  map[string]any
	Products []product.Product
}

// Invoker dispatches named tool calls.
//
// Invoker is safe for concurrent use by multiple goroutines.
type Invoker struct {
	searcher Searcher
	topK     int
	logger   *slog.Logger
}

// NewInvoker creates an Invoker. topK <= 0 uses DefaultTopK; a nil logger
// falls back to slog.Default.
func NewInvoker(searcher Searcher, topK int, logger *slog.Logger) (*Invoker, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{searcher: searcher, topK: topK, logger: logger}, nil
}

// Invoke dispatches a tool call by name. The returned payload is always
// well-formed data, even on failure; errors never escape.
func (inv *Invoker) Invoke(ctx context.Context, name string, argumentsJSON json.RawMessage) Result {
	switch name {
	case SearchKnowledgeBaseName:
		return inv.searchKnowledgeBase(ctx, argumentsJSON)
	default:
		inv.logger.Warn("unknown tool requested", "tool", name)
		return Result{Payload: map[string]any{
			"error": fmt.Sprintf("unknown tool: %s", name),
		}}
	}
}

func (inv *Invoker) searchKnowledgeBase(ctx context.Context, argumentsJSON json.RawMessage) Result {
	var input SearchInput
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return Result{Payload: map[string]any{
			"error": fmt.Sprintf("invalid arguments for %s: %v", SearchKnowledgeBaseName, err),
		}}
	}
	if strings.TrimSpace(input.Query) == "" {
		return Result{Payload: map[string]any{
			"error": "search_knowledge_base requires a non-empty query",
		}}
	}

	matches, err := inv.searcher.Search(ctx, input.Query, inv.topK)
	if err != nil {
		inv.logger.Warn("knowledge search failed",
			"query_length", len(input.Query),
			"error", err,
		)
		return Result{Payload: map[string]any{
			"error": err.Error(),
			"hint":  failureHint(err),
		}}
	}

	products := product.FromDocuments(matches)
	inv.logger.Debug("knowledge search tool completed",
		"matches", len(matches),
		"products", len(products),
	)

	return Result{
		Payload: map[string]any{
			"message":   fmt.Sprintf("Found %d matching documents", len(matches)),
			"documents": matches,
			"products":  products,
		},
		Products: products,
	}
}

// failureHint classifies a search failure into a human-readable hint the
// model can relay to the user.
func failureHint(err error) string {
	var embErr *knowledge.EmbeddingError
	switch {
	case errors.Is(err, knowledge.ErrUnavailable):
		return "The knowledge base search function is not installed. Products cannot be looked up until it is provisioned."
	case errors.As(err, &embErr):
		return "The query could not be embedded. The embedding provider may be misconfigured or unreachable."
	case strings.Contains(strings.ToLower(err.Error()), "missing configuration"):
		return "The knowledge base is missing configuration."
	default:
		return "A network or backend issue prevented the knowledge base lookup. It may succeed if retried later."
	}
}

// Define registers the search_knowledge_base tool schema with Genkit so
// the declaration is sent to the completion provider. Execution still goes
// through Invoke; the handler exists for callers that let Genkit run tools
// directly.
func Define(g *genkit.Genkit, inv *Invoker) ai.Tool {
	return genkit.DefineTool(g, SearchKnowledgeBaseName,
		"Search the product knowledge base using semantic similarity. "+
			"Returns matching documents and the structured products extracted from them. "+
			"Use this whenever the user asks about products, inventory, or the catalog.",
		func(tctx *ai.ToolContext, input SearchInput) (map[string]any, error) {
			args, err := json.Marshal(input)
			if err != nil {
				return nil, fmt.Errorf("marshaling tool input: %w", err)
			}
			return inv.Invoke(tctx.Context, SearchKnowledgeBaseName, args).Payload, nil
		})
}
