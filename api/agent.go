package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/shopmind/shopmind/internal/store"
)

// Agent validation limits.
const (
	MaxModelNameLength    = 100
	MaxSystemPromptLength = 10000
	MaxTemperature        = 2.0
)

// AgentStore is the persistence surface the agent endpoints need.
type AgentStore interface {
	CreateAgent(ctx context.Context, systemPrompt, model string, temperature float32) (*store.Agent, error)
	Agent(ctx context.Context, id uuid.UUID) (*store.Agent, error)
	ListAgents(ctx context.Context, limit, offset int32) ([]store.Agent, error)
	UpdateAgent(ctx context.Context, id uuid.UUID, params store.UpdateAgentParams) (*store.Agent, error)
	DeleteAgent(ctx context.Context, id uuid.UUID) error
}

// AgentHandler handles agent CRUD endpoints.
type AgentHandler struct {
	store  AgentStore
	logger *slog.Logger
}

// NewAgentHandler creates an agent handler.
func NewAgentHandler(store AgentStore, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{store: store, logger: logger}
}

// RegisterRoutes registers agent routes on the given mux.
func (h *AgentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/agents", h.create)
	mux.HandleFunc("GET /api/agents", h.list)
	mux.HandleFunc("GET /api/agents/{id}", h.get)
	mux.HandleFunc("PATCH /api/agents/{id}", h.update)
	mux.HandleFunc("DELETE /api/agents/{id}", h.delete)
}

// CreateAgentRequest is the request body for creating an agent.
type CreateAgentRequest struct {
	SystemPrompt string  `json:"system_prompt"`
	Model        string  `json:"model"`
	Temperature  float32 `json:"temperature"`
}

func (r *CreateAgentRequest) validate() string {
	if r.SystemPrompt == "" {
		return "system_prompt is required"
	}
	if len(r.SystemPrompt) > MaxSystemPromptLength {
		return "system_prompt too long (max 10000 characters)"
	}
	if r.Model == "" {
		return "model is required"
	}
	if len(r.Model) > MaxModelNameLength {
		return "model too long (max 100 characters)"
	}
	if r.Temperature < 0 || r.Temperature > MaxTemperature {
		return "temperature must be between 0.0 and 2.0"
	}
	return ""
}

func (h *AgentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	agent, err := h.store.CreateAgent(r.Context(), req.SystemPrompt, req.Model, req.Temperature)
	if err != nil {
		h.logger.Error("failed to create agent", "error", err)
		writeError(w, errorStatus(err), "failed to create agent")
		return
	}
	writeSuccess(w, http.StatusCreated, agent)
}

func (h *AgentHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit)
	offset := parseIntParam(r, "offset", 0, 0, MaxListOffset)

	agents, err := h.store.ListAgents(r.Context(), int32(limit), int32(offset))
	if err != nil {
		h.logger.Error("failed to list agents", "error", err)
		writeError(w, errorStatus(err), "failed to list agents")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"agents": agents,
		"total":  len(agents),
		"limit":  limit,
		"offset": offset,
	})
}

func (h *AgentHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	agent, err := h.store.Agent(r.Context(), id)
	if err != nil {
		writeError(w, errorStatus(err), "agent not found")
		return
	}
	writeSuccess(w, http.StatusOK, agent)
}

// UpdateAgentRequest is the request body for a partial agent update.
// Absent fields are left unchanged.
type UpdateAgentRequest struct {
	SystemPrompt *string  `json:"system_prompt"`
	Model        *string  `json:"model"`
	Temperature  *float32 `json:"temperature"`
}

func (r *UpdateAgentRequest) validate() string {
	if r.SystemPrompt == nil && r.Model == nil && r.Temperature == nil {
		return "at least one field must be provided"
	}
	if r.SystemPrompt != nil && (*r.SystemPrompt == "" || len(*r.SystemPrompt) > MaxSystemPromptLength) {
		return "system_prompt must be non-empty and at most 10000 characters"
	}
	if r.Model != nil && (*r.Model == "" || len(*r.Model) > MaxModelNameLength) {
		return "model must be non-empty and at most 100 characters"
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > MaxTemperature) {
		return "temperature must be between 0.0 and 2.0"
	}
	return ""
}

func (h *AgentHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	agent, err := h.store.UpdateAgent(r.Context(), id, store.UpdateAgentParams{
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		Temperature:  req.Temperature,
	})
	if err != nil {
		writeError(w, errorStatus(err), "failed to update agent")
		return
	}
	writeSuccess(w, http.StatusOK, agent)
}

func (h *AgentHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteAgent(r.Context(), id); err != nil {
		writeError(w, errorStatus(err), "failed to delete agent")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"deleted": id})
}

// parseID extracts and validates the {id} path segment. On failure it
// writes a 400 and returns ok=false.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id: must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
