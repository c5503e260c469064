package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shopmind/shopmind/internal/chat"
	"github.com/shopmind/shopmind/internal/store"
)

// MaxMessageLength bounds an incoming user message.
const MaxMessageLength = 32000

// Orchestrator runs one message exchange. Consumed as an interface so
// handler tests can script replies.
type Orchestrator interface {
	Send(ctx context.Context, sessionID uuid.UUID, userText string) (*chat.Reply, error)
}

// TurnStore reads conversation history for the messages listing.
type TurnStore interface {
	Session(ctx context.Context, id uuid.UUID) (*store.Session, error)
	Turns(ctx context.Context, sessionID uuid.UUID) ([]store.Turn, error)
}

// ChatHandler handles the message-exchange endpoints.
type ChatHandler struct {
	store        TurnStore
	orchestrator Orchestrator
	logger       *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(store TurnStore, orchestrator Orchestrator, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{store: store, orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions/{id}/messages", h.send)
	mux.HandleFunc("GET /api/sessions/{id}/messages", h.list)
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

func (h *ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(req.Content) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "content too long (max 32000 characters)")
		return
	}

	reply, err := h.orchestrator.Send(r.Context(), sessionID, req.Content)
	if err != nil {
		h.logger.Error("message exchange failed",
			"session_id", sessionID,
			"error", err,
		)
		writeError(w, errorStatus(err), "message exchange failed")
		return
	}
	writeSuccess(w, http.StatusOK, reply)
}

func (h *ChatHandler) list(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, r)
	if !ok {
		return
	}

	// Distinguish an unknown session from one with no turns yet.
	if _, err := h.store.Session(r.Context(), sessionID); err != nil {
		writeError(w, errorStatus(err), "session not found")
		return
	}

	turns, err := h.store.Turns(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to list turns", "session_id", sessionID, "error", err)
		writeError(w, errorStatus(err), "failed to list messages")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"turns": turns,
		"total": len(turns),
	})
}
