package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for menuguard-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (reset tokens, rate-limit state)
	Redis RedisConfig `yaml:"redis"`

	// AI provider configuration
	AI AIConfig `yaml:"ai"`

	// Places API configuration (nearby restaurant lookup)
	Places PlacesConfig `yaml:"places"`

	// Gateway limits
	Gateway GatewayConfig `yaml:"gateway"`

	// Quota applied to newly created non-Pro profiles
	DefaultMonthlyQuota int `yaml:"default_monthly_quota" env:"DEFAULT_MONTHLY_QUOTA" env-default:"5"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// JWTSecret signs session tokens. Server fails to start if unset.
	JWTSecret string `yaml:"-" env:"JWT_SECRET"`

	// SessionKey authenticates the session cookie. Server fails to start if unset.
	SessionKey string `yaml:"-" env:"SESSION_KEY"`

	// TokenTTLHours is the lifetime of issued session tokens.
	TokenTTLHours int `yaml:"token_ttl_hours" env:"AUTH_TOKEN_TTL_HOURS" env-default:"168"`

	// ResetTokenTTLMinutes is the lifetime of password reset tokens.
	ResetTokenTTLMinutes int `yaml:"reset_token_ttl_minutes" env:"AUTH_RESET_TOKEN_TTL_MINUTES" env-default:"60"`

	// CookieSecure marks the session cookie Secure. Disable for local HTTP only.
	CookieSecure bool `yaml:"cookie_secure" env:"AUTH_COOKIE_SECURE" env-default:"true"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"menuguard"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"menuguard_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis connection configuration.
// An empty host disables Redis-backed features (password reset).
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AIConfig holds LLM provider configuration.
type AIConfig struct {
	// Provider selects the client implementation: "openai" or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`

	// Endpoint is the base URL for OpenAI-compatible providers.
	// Ignored by the anthropic provider.
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://api.openai.com/v1"`

	Model  string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML

	// RequestTimeoutSeconds bounds a single model call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" env:"AI_REQUEST_TIMEOUT_SECONDS" env-default:"60"`

	// PromptOverridesPath optionally points at a YAML file with prompt
	// template overrides. Empty means built-in templates only.
	PromptOverridesPath string `yaml:"prompt_overrides_path" env:"AI_PROMPT_OVERRIDES_PATH" env-default:""`
}

// PlacesConfig holds places API configuration.
type PlacesConfig struct {
	// APIKey is shared between server-side lookups and the browser map widget.
	APIKey string `yaml:"-" env:"PLACES_API_KEY"` // Secret - not in YAML

	// BaseURL is overridable for testing against a fake places server.
	BaseURL string `yaml:"base_url" env:"PLACES_BASE_URL" env-default:"https://maps.googleapis.com/maps/api/place"`

	// RadiusMeters is the nearby-search radius.
	RadiusMeters int `yaml:"radius_meters" env:"PLACES_RADIUS_METERS" env-default:"1500"`

	// MaxResults caps the number of restaurants returned per lookup.
	MaxResults int `yaml:"max_results" env:"PLACES_MAX_RESULTS" env-default:"12"`

	// DetailConcurrency bounds the per-place detail fan-out.
	DetailConcurrency int `yaml:"detail_concurrency" env:"PLACES_DETAIL_CONCURRENCY" env-default:"8"`

	// TimeoutSeconds bounds a single places API call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"PLACES_TIMEOUT_SECONDS" env-default:"10"`
}

// GatewayConfig holds AI gateway limits.
type GatewayConfig struct {
	// RatePerMinute is the per-client request budget on /api/ai.
	RatePerMinute int `yaml:"rate_per_minute" env:"GATEWAY_RATE_PER_MINUTE" env-default:"30"`

	// Burst is the per-client burst size on /api/ai.
	Burst int `yaml:"burst" env:"GATEWAY_BURST" env-default:"10"`

	// MenuFetchTimeoutSeconds bounds fetching a user-supplied menu URL.
	MenuFetchTimeoutSeconds int `yaml:"menu_fetch_timeout_seconds" env:"GATEWAY_MENU_FETCH_TIMEOUT_SECONDS" env-default:"15"`

	// MenuFetchMaxBytes caps the body size read from a menu URL.
	MenuFetchMaxBytes int64 `yaml:"menu_fetch_max_bytes" env:"GATEWAY_MENU_FETCH_MAX_BYTES" env-default:"2097152"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// When config.yaml does not exist, configuration comes from the environment alone.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validate rejects configurations the server cannot safely run with.
func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.Auth.SessionKey == "" {
		return fmt.Errorf("SESSION_KEY must be set")
	}
	if c.AI.APIKey == "" && c.AI.Provider == "anthropic" {
		return fmt.Errorf("AI_API_KEY must be set for the anthropic provider")
	}
	if c.AI.Provider != "openai" && c.AI.Provider != "anthropic" {
		return fmt.Errorf("unknown AI provider %q (expected openai or anthropic)", c.AI.Provider)
	}
	if c.Places.MaxResults <= 0 {
		return fmt.Errorf("places max_results must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
