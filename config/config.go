package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Env Environment

	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Database configuration. DBDriver is "postgres" or "sqlite".
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration. RedisURL wins over host/port when set.
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string

	Model    ModelConfig
	Analysis AnalysisConfig

	// Photo archive. Archiving is off when S3BucketName is empty.
	S3BucketName string
	AWSRegion    string
}

// ModelConfig describes the chat-completions endpoint used for menu analysis.
type ModelConfig struct {
	APIKey      string
	APIURL      string
	Name        string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// AnalysisConfig tunes the analysis pipeline around the model call.
type AnalysisConfig struct {
	MaxAttempts     int
	CacheTTL        time.Duration
	RateLimit       int
	RateLimitWindow time.Duration
}

const (
	DefaultModelURL     = "https://api.openai.com/v1/chat/completions"
	DefaultModelName    = "gpt-4o"
	DefaultModelTimeout = 120 * time.Second
)

// source looks up one configuration key.
type source func(key string) string

func envSource(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// secretSource reads KEY from $KEY_FILE or from the docker secret named key in lower case.
func secretSource(key string) string {
	if file := os.Getenv(key + "_FILE"); file != "" {
		if data, err := os.ReadFile(file); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return readSecret(strings.ToLower(key))
}

func layered(sources ...source) source {
	return func(key string) string {
		for _, s := range sources {
			if v := s(key); v != "" {
				return v
			}
		}
		return ""
	}
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	var src source
	switch env {
	case CI:
		// CI runners only get plain environment variables
		src = envSource
	case Development, Test:
		src = layered(envSource, secretSource)
	case Production:
		src = layered(secretSource, envSource)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	cfg, err := load(src)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}
	cfg.Env = env

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(get source) (*Config, error) {
	or := func(key, def string) string {
		if v := get(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		ServerHost:     or("SERVER_HOST", "0.0.0.0"),
		ServerPort:     or("SERVER_PORT", "8080"),
		AllowedOrigins: splitList(or("ALLOWED_ORIGINS", "*")),
		DBDriver:       strings.ToLower(or("DB_DRIVER", "postgres")),
		DBHost:         or("DB_HOST", "localhost"),
		DBPort:         or("DB_PORT", "5432"),
		DBUser:         get("DB_USER"),
		DBPassword:     get("DB_PASSWORD"),
		DBName:         or("DB_NAME", "knoweat"),
		DBSSLMode:      or("DB_SSL_MODE", "disable"),
		SQLitePath:     or("SQLITE_PATH", "knoweat.db"),
		RedisURL:       get("REDIS_URL"),
		RedisHost:      or("REDIS_HOST", "localhost"),
		RedisPort:      or("REDIS_PORT", "6379"),
		RedisPassword:  get("REDIS_PASSWORD"),
		JWTSecret:      get("JWT_SECRET"),
		S3BucketName:   get("S3_BUCKET_NAME"),
		AWSRegion:      or("AWS_REGION", "us-east-1"),
		Model: ModelConfig{
			APIKey: get("MODEL_API_KEY"),
			APIURL: or("MODEL_API_URL", DefaultModelURL),
			Name:   or("MODEL_NAME", DefaultModelName),
		},
	}

	var err error
	if cfg.RedisDB, err = parseInt(get, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Model.Timeout, err = parseDuration(get, "MODEL_TIMEOUT", DefaultModelTimeout); err != nil {
		return nil, err
	}
	if cfg.Model.MaxTokens, err = parseInt(get, "MODEL_MAX_TOKENS", 4096); err != nil {
		return nil, err
	}
	if cfg.Model.Temperature, err = parseFloat(get, "MODEL_TEMPERATURE", 0.1); err != nil {
		return nil, err
	}
	if cfg.Analysis.MaxAttempts, err = parseInt(get, "ANALYSIS_MAX_ATTEMPTS", 1); err != nil {
		return nil, err
	}
	if cfg.Analysis.CacheTTL, err = parseDuration(get, "ANALYSIS_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Analysis.RateLimit, err = parseInt(get, "ANALYSIS_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.Analysis.RateLimitWindow, err = parseDuration(get, "ANALYSIS_RATE_WINDOW", time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// ArchiveEnabled reports whether scanned photos should be uploaded to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.S3BucketName != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(get source, key string, def int) (int, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid integer %q", v)}
	}
	return n, nil
}

func parseFloat(get source, key string, def float64) (float64, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid number %q", v)}
	}
	return f, nil
}

func parseDuration(get source, key string, def time.Duration) (time.Duration, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid duration %q", v)}
	}
	return d, nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
