package knowledge

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the vector backend is missing the similarity
// search capability itself (the match_documents function is not installed).
// This is a configuration problem, not a transient failure; callers should
// check it with errors.Is and must not retry.
var ErrUnavailable = errors.New("knowledge base search is not available")

// EmbeddingError wraps a failure from the remote embedding provider.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// QueryError wraps a vector-backend failure that survived retries.
// It carries the backend's message so callers can surface it.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("knowledge base query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
