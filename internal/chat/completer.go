package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// Request is one completion-provider invocation: the full message list plus
// the model settings resolved from the session's agent.
type Request struct {
	Messages    []*ai.Message
	Model       string
	Temperature float32
}

// ToolCall is a provider-requested tool invocation. Ref correlates the
// request with its response entry in the message list.
type ToolCall struct {
	Ref       string
	Name      string
	Arguments json.RawMessage
}

// Completion is the provider's answer to one Request. Text may be empty
// when the provider produced only tool calls (or nothing at all).
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Completer is the completion-provider dependency of the Orchestrator.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// GenkitCompleter adapts a Genkit instance to the Completer interface.
//
// Tool requests are returned to the caller rather than executed by Genkit;
// the orchestrator runs them itself so it can bound execution to a single
// round and capture per-call failures as tool responses.
type GenkitCompleter struct {
	g       *genkit.Genkit
	tools   []ai.ToolRef
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGenkitCompleter creates a completer over g declaring the given tools.
// limiter may be nil to disable provider-side rate limiting.
func NewGenkitCompleter(g *genkit.Genkit, tools []ai.ToolRef, limiter *rate.Limiter, logger *slog.Logger) *GenkitCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenkitCompleter{g: g, tools: tools, limiter: limiter, logger: logger}
}

// Complete sends the message list to the model and returns its text and any
// requested tool calls.
func (c *GenkitCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	opts := []ai.GenerateOption{
		ai.WithMessages(req.Messages...),
		ai.WithTools(c.tools...),
		ai.WithReturnToolRequests(true),
	}
	if req.Model != "" {
		opts = append(opts, ai.WithModelName(req.Model))
	}
	if req.Temperature > 0 {
		opts = append(opts, ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature: float64(req.Temperature),
		}))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("completion provider: %w", err)
	}

	completion := &Completion{Text: resp.Text()}
	for _, tr := range resp.ToolRequests() {
		args, err := json.Marshal(tr.Input)
		if err != nil {
			return nil, fmt.Errorf("serializing tool arguments for %s: %w", tr.Name, err)
		}
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			Ref:       tr.Ref,
			Name:      tr.Name,
			Arguments: args,
		})
	}

	c.logger.Debug("completion received",
		"text_length", len(completion.Text),
		"tool_calls", len(completion.ToolCalls),
	)
	return completion, nil
}
