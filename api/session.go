package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shopmind/shopmind/internal/store"
)

// Pagination bounds shared by the list endpoints.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
	MaxListOffset    = 100000
)

// SessionStore is the persistence surface the session endpoints need.
type SessionStore interface {
	CreateSession(ctx context.Context, agentID *uuid.UUID) (*store.Session, error)
	Session(ctx context.Context, id uuid.UUID) (*store.Session, error)
	ListSessions(ctx context.Context, limit, offset int32) ([]store.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// SessionHandler handles session CRUD endpoints.
type SessionHandler struct {
	store  SessionStore
	logger *slog.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(store SessionStore, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("GET /api/sessions/{id}", h.get)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.delete)
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	AgentID *uuid.UUID `json:"agent_id"`
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	// An empty body means a session without an agent.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.store.CreateSession(r.Context(), req.AgentID)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		writeError(w, errorStatus(err), "failed to create session")
		return
	}
	writeSuccess(w, http.StatusCreated, session)
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit)
	offset := parseIntParam(r, "offset", 0, 0, MaxListOffset)

	sessions, err := h.store.ListSessions(r.Context(), int32(limit), int32(offset))
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		writeError(w, errorStatus(err), "failed to list sessions")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	session, err := h.store.Session(r.Context(), id)
	if err != nil {
		writeError(w, errorStatus(err), "session not found")
		return
	}
	writeSuccess(w, http.StatusOK, session)
}

func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		writeError(w, errorStatus(err), "failed to delete session")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"deleted": id})
}

// parseIntParam parses an integer query parameter with bounds clamping.
func parseIntParam(r *http.Request, name string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
