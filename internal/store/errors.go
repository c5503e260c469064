package store

import "errors"

// Sentinel errors for lookup failures. Callers test with errors.Is.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAgentNotFound   = errors.New("agent not found")
)
