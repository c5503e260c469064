// Package chat implements the message-exchange pipeline: it assembles
// conversation context, calls the completion provider, runs requested
// knowledge-base tool calls, extracts and reconciles product records, and
// persists the finished turn.
//
// The pipeline is a single linear pass per incoming message, modeled as an
// explicit state machine so the decision points (direct answer, forced
// tool call, tool execution) and the one-round cap on tool execution are
// easy to follow and verify.
//
// Concurrency: one Orchestrator serves many sessions concurrently; all
// per-turn state lives in a local run value, so no locking is needed.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/shopmind/shopmind/internal/log"
	"github.com/shopmind/shopmind/internal/product"
	"github.com/shopmind/shopmind/internal/store"
	"github.com/shopmind/shopmind/internal/tools"
)

// ErrEmptyMessage is returned by Send when the user content is blank.
var ErrEmptyMessage = errors.New("message content is required")

// toolInstructions is appended to every system prompt so the model knows
// when and how to reach for the knowledge base.
const toolInstructions = "\n\nWhen the user asks about products, inventory, pricing, or anything " +
	"that could live in the knowledge base, call the search_knowledge_base tool before answering. " +
	"Enumerate every product the search returns, including each one's product ID."

// Store is the persistence dependency of the Orchestrator.
type Store interface {
	Session(ctx context.Context, id uuid.UUID) (*store.Session, error)
	Agent(ctx context.Context, id uuid.UUID) (*store.Agent, error)
	Turns(ctx context.Context, sessionID uuid.UUID) ([]store.Turn, error)
	CreateTurn(ctx context.Context, sessionID uuid.UUID, userMessage, assistantMessage *string) (*store.Turn, error)
}

// Invoker executes model-requested tool calls. Results are always
// well-formed payloads; per-call failures arrive as error payloads.
type Invoker interface {
	Invoke(ctx context.Context, name string, argumentsJSON json.RawMessage) tools.Result
}

// Reply is the outcome of one orchestrated turn.
type Reply struct {
	Turn     *store.Turn       `json:"turn"`
	Products []product.Product `json:"products"`
}

// Config assembles an Orchestrator's dependencies.
type Config struct {
	Store     Store
	Completer Completer
	Invoker   Invoker

	// Intent decides whether a turn that produced no tool calls should be
	// forced through the knowledge base anyway. Nil uses
	// DefaultIntentPredicate.
	Intent IntentPredicate

	// DefaultModel and DefaultTemperature apply to sessions without an
	// agent. DefaultTemperature <= 0 falls back to store.DefaultTemperature.
	DefaultModel       string
	DefaultTemperature float32

	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Store == nil {
		return errors.New("chat: store is required")
	}
	if c.Completer == nil {
		return errors.New("chat: completer is required")
	}
	if c.Invoker == nil {
		return errors.New("chat: invoker is required")
	}
	return nil
}

// Orchestrator runs the message-exchange pipeline. Safe for concurrent use.
type Orchestrator struct {
	store       Store
	completer   Completer
	invoker     Invoker
	intent      IntentPredicate
	model       string
	temperature float32
	logger      *slog.Logger
}

// New creates an Orchestrator from cfg.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Intent == nil {
		cfg.Intent = DefaultIntentPredicate
	}
	if cfg.DefaultTemperature <= 0 {
		cfg.DefaultTemperature = store.DefaultTemperature
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	return &Orchestrator{
		store:       cfg.Store,
		completer:   cfg.Completer,
		invoker:     cfg.Invoker,
		intent:      cfg.Intent,
		model:       cfg.DefaultModel,
		temperature: cfg.DefaultTemperature,
		logger:      cfg.Logger,
	}, nil
}

// state enumerates the pipeline's phases. Tool execution happens in at
// most one of stateForcedTool and stateToolExecution, exactly once.
type state int

const (
	stateLoadContext state = iota
	stateBuildPrompt
	stateFirstCompletion
	stateForcedTool
	stateToolExecution
	stateSecondCompletion
	stateReconcile
	statePersist
	stateDone
)

func (s state) String() string {
	switch s {
	case stateLoadContext:
		return "load context"
	case stateBuildPrompt:
		return "build prompt"
	case stateFirstCompletion:
		return "first completion"
	case stateForcedTool:
		return "forced tool call"
	case stateToolExecution:
		return "tool execution"
	case stateSecondCompletion:
		return "second completion"
	case stateReconcile:
		return "reconcile products"
	case statePersist:
		return "persist turn"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// run carries all mutable state of one pipeline pass.
type run struct {
	sessionID    uuid.UUID
	userText     string
	systemPrompt string
	model        string
	temperature  float32
	history      []store.Turn
	messages     []*ai.Message
	first        *Completion
	products     []product.Product
	finalText    string
	reply        *Reply
}

// Send processes one user message against a session and returns the
// persisted turn with the reconciled product list.
//
// Provider and persistence errors abort the whole pass with nothing
// written; individual tool-call failures do not, they are fed back to the
// model as error payloads.
func (o *Orchestrator) Send(ctx context.Context, sessionID uuid.UUID, userText string) (*Reply, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyMessage
	}

	r := &run{
		sessionID:    sessionID,
		userText:     userText,
		systemPrompt: store.DefaultSystemPrompt,
		model:        o.model,
		temperature:  o.temperature,
	}

	for st := stateLoadContext; st != stateDone; {
		next, err := o.step(ctx, r, st)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st, err)
		}
		o.logger.Debug("pipeline transition",
			"session_id", sessionID,
			"from", st.String(),
			"to", next.String(),
		)
		st = next
	}
	return r.reply, nil
}

func (o *Orchestrator) step(ctx context.Context, r *run, st state) (state, error) {
	switch st {
	case stateLoadContext:
		return o.loadContext(ctx, r)
	case stateBuildPrompt:
		return o.buildPrompt(r)
	case stateFirstCompletion:
		return o.firstCompletion(ctx, r)
	case stateForcedTool:
		return o.forcedTool(ctx, r)
	case stateToolExecution:
		return o.toolExecution(ctx, r)
	case stateSecondCompletion:
		return o.secondCompletion(ctx, r)
	case stateReconcile:
		return o.reconcile(r)
	case statePersist:
		return o.persist(ctx, r)
	}
	return stateDone, fmt.Errorf("invalid pipeline state %d", st)
}

func (o *Orchestrator) loadContext(ctx context.Context, r *run) (state, error) {
	session, err := o.store.Session(ctx, r.sessionID)
	if err != nil {
		return stateDone, err
	}

	if session.AgentID != nil {
		agent, err := o.store.Agent(ctx, *session.AgentID)
		switch {
		case err == nil:
			r.systemPrompt = agent.SystemPrompt
			if agent.Model != "" {
				r.model = agent.Model
			}
			if agent.Temperature > 0 {
				r.temperature = agent.Temperature
			}
		case errors.Is(err, store.ErrAgentNotFound):
			// The agent was deleted out from under the session. Keep the
			// default persona rather than failing the turn.
			o.logger.Warn("session references missing agent",
				"session_id", r.sessionID,
				"agent_id", *session.AgentID,
			)
		default:
			return stateDone, err
		}
	}

	r.history, err = o.store.Turns(ctx, r.sessionID)
	if err != nil {
		return stateDone, err
	}
	return stateBuildPrompt, nil
}

func (o *Orchestrator) buildPrompt(r *run) (state, error) {
	messages := make([]*ai.Message, 0, 2*len(r.history)+2)
	messages = append(messages, systemMessage(r.systemPrompt+toolInstructions))

	for _, turn := range r.history {
		if turn.UserMessage != nil {
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(*turn.UserMessage)))
		}
		if turn.AssistantMessage != nil {
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(*turn.AssistantMessage)))
		}
	}

	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(r.userText)))
	r.messages = messages
	return stateFirstCompletion, nil
}

func (o *Orchestrator) firstCompletion(ctx context.Context, r *run) (state, error) {
	completion, err := o.completer.Complete(ctx, Request{
		Messages:    r.messages,
		Model:       r.model,
		Temperature: r.temperature,
	})
	if err != nil {
		return stateDone, err
	}
	r.first = completion

	switch {
	case len(completion.ToolCalls) > 0:
		return stateToolExecution, nil
	case o.intent(r.userText):
		o.logger.Info("forcing knowledge base lookup",
			"session_id", r.sessionID,
		)
		return stateForcedTool, nil
	default:
		// Direct answer: the first completion's text is final, no products.
		r.finalText = completion.Text
		return statePersist, nil
	}
}

// forcedTool synthesizes a search call from the raw user text when the
// model skipped tool use but the message plainly asked about the catalog.
func (o *Orchestrator) forcedTool(ctx context.Context, r *run) (state, error) {
	args, err := json.Marshal(tools.SearchInput{Query: r.userText})
	if err != nil {
		return stateDone, fmt.Errorf("serializing forced tool arguments: %w", err)
	}
	o.executeCalls(ctx, r, []ToolCall{{
		Ref:       "forced-1",
		Name:      tools.SearchKnowledgeBaseName,
		Arguments: args,
	}})
	return stateSecondCompletion, nil
}

func (o *Orchestrator) toolExecution(ctx context.Context, r *run) (state, error) {
	o.executeCalls(ctx, r, r.first.ToolCalls)
	return stateSecondCompletion, nil
}

// executeCalls appends the assistant entry carrying the tool requests,
// runs each call in request order, and appends one tool-role response
// entry per call. Failures arrive from the invoker as error payloads, so
// this never aborts the pass.
func (o *Orchestrator) executeCalls(ctx context.Context, r *run, calls []ToolCall) {
	requestParts := make([]*ai.Part, 0, len(calls))
	for _, call := range calls {
		var input any
		if len(call.Arguments) > 0 {
			if err := json.Unmarshal(call.Arguments, &input); err != nil {
				o.logger.Warn("tool arguments are not valid JSON", "tool", call.Name, "error", err)
			}
		}
		requestParts = append(requestParts, &ai.Part{
			Kind: ai.PartToolRequest,
			ToolRequest: &ai.ToolRequest{
				Ref:   call.Ref,
				Name:  call.Name,
				Input: input,
			},
		})
	}
	r.messages = append(r.messages, &ai.Message{Role: ai.RoleModel, Content: requestParts})

	for _, call := range calls {
		result := o.invoker.Invoke(ctx, call.Name, call.Arguments)
		r.products = append(r.products, result.Products...)
		r.messages = append(r.messages, &ai.Message{
			Role: ai.RoleTool,
			Content: []*ai.Part{ai.NewToolResponsePart(&ai.ToolResponse{
				Ref:    call.Ref,
				Name:   call.Name,
				Output: result.Payload,
			})},
		})
	}
}

func (o *Orchestrator) secondCompletion(ctx context.Context, r *run) (state, error) {
	r.products = product.Merge(r.products)
	if len(r.products) > 0 {
		r.messages = append(r.messages, systemMessage(productReminder(r.products)))
	}

	completion, err := o.completer.Complete(ctx, Request{
		Messages:    r.messages,
		Model:       r.model,
		Temperature: r.temperature,
	})
	if err != nil {
		return stateDone, err
	}

	// Tool execution is capped at one round. Further requests are recorded
	// and dropped, never executed.
	if len(completion.ToolCalls) > 0 {
		o.logger.Warn("ignoring tool calls requested in final round",
			"session_id", r.sessionID,
			"count", len(completion.ToolCalls),
		)
	}

	r.finalText = completion.Text
	return stateReconcile, nil
}

func (o *Orchestrator) reconcile(r *run) (state, error) {
	switch {
	case len(r.products) == 0:
		if strings.Contains(r.finalText, "Product ID") {
			r.products = product.FromText(r.finalText)
		}
	default:
		// Document-derived records come first so their fields win unless
		// still at placeholder defaults.
		r.products = product.Merge(r.products, product.FromText(r.finalText))
	}
	return statePersist, nil
}

func (o *Orchestrator) persist(ctx context.Context, r *run) (state, error) {
	var assistant *string
	if r.finalText != "" {
		assistant = &r.finalText
	}

	turn, err := o.store.CreateTurn(ctx, r.sessionID, &r.userText, assistant)
	if err != nil {
		return stateDone, err
	}

	o.logger.Info("turn persisted",
		"session_id", r.sessionID,
		"turn_id", turn.ID,
		"products", len(r.products),
		"has_assistant_text", assistant != nil,
	)

	r.reply = &Reply{Turn: turn, Products: r.products}
	return stateDone, nil
}

func systemMessage(text string) *ai.Message {
	return &ai.Message{Role: ai.RoleSystem, Content: []*ai.Part{ai.NewTextPart(text)}}
}

// productReminder summarizes the found products for the final round so the
// model enumerates all of them.
func productReminder(products []product.Product) string {
	var b strings.Builder
	b.WriteString("The knowledge base search found the following products. Mention every one of them in your answer:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (Product ID: %s)\n", p.Name, p.ProductID)
	}
	return b.String()
}
