package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/shopmind/shopmind/internal/log"
)

// Querier is the subset of pgxpool.Pool the store needs. Defined on the
// consumer side so tests can substitute their own implementation.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides CRUD access to agents, sessions, and turns.
type Store struct {
	db     Querier
	logger *slog.Logger
}

// New creates a Store backed by db.
func New(db Querier, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: database connection is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}, nil
}

// CreateAgent inserts a new agent. A zero temperature is replaced with
// DefaultTemperature before insertion.
func (s *Store) CreateAgent(ctx context.Context, systemPrompt, model string, temperature float32) (*Agent, error) {
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO agents (system_prompt, model, temperature)
		VALUES ($1, $2, $3)
		RETURNING id, system_prompt, model, temperature, created_at, updated_at`,
		systemPrompt, model, temperature)

	agent, err := scanAgent(row)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	s.logger.Info("agent created", "agent_id", agent.ID, "model", agent.Model)
	return agent, nil
}

// Agent returns the agent with the given ID, or ErrAgentNotFound.
func (s *Store) Agent(ctx context.Context, id uuid.UUID) (*Agent, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, system_prompt, model, temperature, created_at, updated_at
		FROM agents
		WHERE id = $1`, id)

	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return agent, nil
}

// ListAgents returns agents ordered newest first.
func (s *Store) ListAgents(ctx context.Context, limit, offset int32) ([]Agent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, system_prompt, model, temperature, created_at, updated_at
		FROM agents
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("list agents: %w", err)
		}
		agents = append(agents, *agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// UpdateAgent applies a partial update and returns the updated agent.
// Returns ErrAgentNotFound when no such agent exists.
func (s *Store) UpdateAgent(ctx context.Context, id uuid.UUID, params UpdateAgentParams) (*Agent, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE agents
		SET system_prompt = COALESCE($2, system_prompt),
		    model         = COALESCE($3, model),
		    temperature   = COALESCE($4, temperature),
		    updated_at    = now()
		WHERE id = $1
		RETURNING id, system_prompt, model, temperature, created_at, updated_at`,
		id, params.SystemPrompt, params.Model, params.Temperature)

	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("update agent: %w", err)
	}

	s.logger.Info("agent updated", "agent_id", agent.ID)
	return agent, nil
}

// DeleteAgent removes an agent. Sessions referencing it keep running with
// the default system prompt because the foreign key nulls on delete.
func (s *Store) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}

	s.logger.Info("agent deleted", "agent_id", id)
	return nil
}

// CreateSession creates a session, optionally bound to an agent. A dangling
// agent reference maps to ErrAgentNotFound.
func (s *Store) CreateSession(ctx context.Context, agentID *uuid.UUID) (*Session, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO sessions (agent_id)
		VALUES ($1)
		RETURNING id, agent_id, created_at, updated_at`, agentID)

	session, err := scanSession(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session created", "session_id", session.ID)
	return session, nil
}

// Session returns the session with the given ID, or ErrSessionNotFound.
func (s *Store) Session(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, agent_id, created_at, updated_at
		FROM sessions
		WHERE id = $1`, id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns sessions ordered newest first.
func (s *Store) ListSessions(ctx context.Context, limit, offset int32) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, agent_id, created_at, updated_at
		FROM sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session and, through the foreign key cascade,
// all of its turns.
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	s.logger.Info("session deleted", "session_id", id)
	return nil
}

// Turns returns a session's turns in chronological order.
func (s *Store) Turns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, user_message, assistant_message, created_at, updated_at
		FROM conversation_turns
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("list turns: %w", err)
		}
		turns = append(turns, *turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}

// CreateTurn appends a turn to a session. Either message may be nil; an
// unknown session maps to ErrSessionNotFound.
func (s *Store) CreateTurn(ctx context.Context, sessionID uuid.UUID, userMessage, assistantMessage *string) (*Turn, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO conversation_turns (session_id, user_message, assistant_message)
		VALUES ($1, $2, $3)
		RETURNING id, session_id, user_message, assistant_message, created_at, updated_at`,
		sessionID, userMessage, assistantMessage)

	turn, err := scanTurn(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return turn, nil
}

func scanAgent(row pgx.Row) (*Agent, error) {
	var a Agent
	if err := row.Scan(&a.ID, &a.SystemPrompt, &a.Model, &a.Temperature, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var (
		s       Session
		agentID pgtype.UUID
	)
	if err := row.Scan(&s.ID, &agentID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if agentID.Valid {
		id := uuid.UUID(agentID.Bytes)
		s.AgentID = &id
	}
	return &s, nil
}

func scanTurn(row pgx.Row) (*Turn, error) {
	var (
		t         Turn
		user      pgtype.Text
		assistant pgtype.Text
	)
	if err := row.Scan(&t.ID, &t.SessionID, &user, &assistant, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if user.Valid {
		t.UserMessage = &user.String
	}
	if assistant.Valid {
		t.AssistantMessage = &assistant.String
	}
	return &t, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
