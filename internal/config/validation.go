package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Sentinel validation errors, checked with errors.Is().
var (
	ErrConfigNil               = errors.New("configuration is nil")
	ErrMissingAPIKey           = errors.New("missing API key")
	ErrInvalidProvider         = errors.New("invalid provider")
	ErrInvalidModelName        = errors.New("invalid model name")
	ErrInvalidTemperature      = errors.New("invalid temperature")
	ErrInvalidEmbedderModel    = errors.New("invalid embedder model")
	ErrInvalidTopK             = errors.New("invalid search top-k")
	ErrInvalidRetry            = errors.New("invalid retry configuration")
	ErrInvalidHTTPAddr         = errors.New("invalid http address")
	ErrInvalidOllamaHost       = errors.New("invalid Ollama host")
	ErrInvalidPostgresHost     = errors.New("invalid PostgreSQL host")
	ErrInvalidPostgresPort     = errors.New("invalid PostgreSQL port")
	ErrInvalidPostgresDBName   = errors.New("invalid PostgreSQL database name")
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")
	ErrInvalidPostgresSSLMode  = errors.New("invalid PostgreSQL SSL mode")
)

// Validate validates configuration values. Returns sentinel errors that
// can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Provider and its credentials. API keys are read by the Genkit plugins
	// directly from the environment; only presence is checked here.
	switch c.Provider {
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
		}
	default:
		return fmt.Errorf("%w: %q (expected %s, %s, or %s)",
			ErrInvalidProvider, c.Provider, ProviderGemini, ProviderOllama, ProviderOpenAI)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity).
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}
	if c.SearchTopK <= 0 || c.SearchTopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.SearchTopK)
	}

	if c.RetryMaxAttempts < 1 || c.RetryMaxAttempts > 10 {
		return fmt.Errorf("%w: retry_max_attempts must be between 1 and 10, got %d",
			ErrInvalidRetry, c.RetryMaxAttempts)
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("%w: retry_base_delay must be positive, got %s",
			ErrInvalidRetry, c.RetryBaseDelay)
	}
	if c.ProviderRPS < 0 {
		return fmt.Errorf("%w: provider_rps cannot be negative, got %g", ErrInvalidRetry, c.ProviderRPS)
	}

	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http_addr cannot be empty", ErrInvalidHTTPAddr)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "shopmind_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"hint", "change postgres_password for production deployments")
	}

	// Deprecated allow/prefer modes are excluded on purpose.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q (expected one of %v)",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}
