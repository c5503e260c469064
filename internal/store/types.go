// Package store persists agents, chat sessions, and conversation turns in
// PostgreSQL.
//
// Thread safety: Store is safe for concurrent use; every method is a
// single statement against the pool.
package store

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTemperature is applied when an agent is created without one.
const DefaultTemperature = 0.7

// DefaultSystemPrompt is the effective system prompt for sessions without
// an associated agent.
const DefaultSystemPrompt = "You are a helpful shopping assistant. Answer questions about products using the knowledge base."

// Agent is a configured AI persona: a system prompt plus model settings.
// Identity is immutable; configuration fields may be updated.
type Agent struct {
	ID           uuid.UUID `json:"id"`
	SystemPrompt string    `json:"system_prompt"`
	Model        string    `json:"model"`
	Temperature  float32   `json:"temperature"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a conversation container, optionally bound to an agent.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	AgentID   *uuid.UUID `json:"agent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Turn is one persisted conversation unit: the user's message and the
// assistant's reply, either of which may be absent. Turns are never
// mutated after creation; they disappear only with their session.
type Turn struct {
	ID               uuid.UUID `json:"id"`
	SessionID        uuid.UUID `json:"session_id"`
	UserMessage      *string   `json:"user_message"`
	AssistantMessage *string   `json:"assistant_message"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UpdateAgentParams carries the mutable agent fields for a partial update.
// Nil fields are left unchanged.
type UpdateAgentParams struct {
	SystemPrompt *string
	Model        *string
	Temperature  *float32
}
