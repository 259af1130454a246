package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks the configuration and reports every missing or invalid field at once
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if cfg.ServerPort == "" {
		add("SERVER_PORT", "is required")
	}
	if cfg.JWTSecret == "" {
		add("JWT_SECRET", "is required")
	}
	if cfg.Model.APIKey == "" {
		add("MODEL_API_KEY", "is required (or MODEL_API_KEY_FILE / model_api_key secret)")
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBUser == "" {
			add("DB_USER", "is required for the postgres driver")
		}
		if cfg.DBPassword == "" && cfg.Env.RequiresSecrets() {
			add("DB_PASSWORD", "is required outside development")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required for the sqlite driver")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	if cfg.Model.Timeout <= 0 {
		add("MODEL_TIMEOUT", "must be positive")
	}
	if cfg.Model.MaxTokens <= 0 {
		add("MODEL_MAX_TOKENS", "must be positive")
	}
	if cfg.Model.Temperature < 0 || cfg.Model.Temperature > 2 {
		add("MODEL_TEMPERATURE", "must be between 0 and 2")
	}
	if cfg.Analysis.MaxAttempts < 1 {
		add("ANALYSIS_MAX_ATTEMPTS", "must be at least 1")
	}
	if cfg.Analysis.RateLimit < 0 {
		add("ANALYSIS_RATE_LIMIT", "must not be negative")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
