// Package retry provides a small exponential-backoff wrapper for flaky
// remote dependencies.
//
// Failures whose message marks a permanent configuration problem (a missing
// database function, absent configuration) are never retried; everything else
// is retried with `baseDelay * 2^attempt` backoff until the attempt budget is
// exhausted.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Config configures the retry behavior.
// The zero value uses DefaultMaxAttempts and DefaultBaseDelay.
type Config struct {
	MaxAttempts int           // Total attempt budget (first call included)
	BaseDelay   time.Duration // Backoff base; attempt n sleeps BaseDelay * 2^n
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	return c
}

// permanentMarkers are message fragments that identify configuration
// problems which no amount of retrying can fix.
//
// NOTE: string matching is used because the backends behind this wrapper
// (Postgres via pgx, embedding providers) do not expose typed errors for
// these conditions at this layer.
var permanentMarkers = []string{
	"does not exist",
	"missing configuration",
}

// Permanent reports whether err is a non-retryable configuration failure.
func Permanent(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), permanentMarkers...)
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// Do executes op, retrying transient failures with exponential backoff.
//
// Permanent failures (see Permanent) abort immediately with the failing
// error. After MaxAttempts failed attempts the last observed error is
// returned. Backoff waits respect context cancellation.
func Do[T any](ctx context.Context, cfg Config, logger *slog.Logger, op func(context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if Permanent(err) {
			return zero, err
		}

		logger.Debug("attempt failed",
			"attempt", attempt+1,
			"maxAttempts", cfg.MaxAttempts,
			"error", err,
		)

		// Last attempt - don't sleep
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.BaseDelay * (1 << attempt)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
