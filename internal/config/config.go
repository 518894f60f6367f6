// Package config provides configuration management for TravelBuddy.
// It loads configuration from environment variables (optionally seeded from
// .env files) with sensible defaults, and merges in the credentials stored in
// the settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Backland-Labs/travelbuddy/internal/settings"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable the config reads
const EnvPrefix = "TRAVELBUDDY_"

// Verbosity represents the output verbosity level
type Verbosity string

const (
	// VerbosityNormal shows only essential output
	VerbosityNormal Verbosity = "normal"
	// VerbosityVerbose includes step descriptions and timing
	VerbosityVerbose Verbosity = "verbose"
	// VerbosityDebug provides full debug logging
	VerbosityDebug Verbosity = "debug"
)

// ErrAPIKeyMissing is returned by RequireCredentials when no API key is configured
var ErrAPIKeyMissing = errors.New("API key is not configured")

// ErrAssistantIDMissing is returned by RequireCredentials when no assistant ID is configured
var ErrAssistantIDMissing = errors.New("assistant ID is not configured")

// Credentials holds the secrets needed to talk to the assistant API
type Credentials struct {
	// APIKey is the bearer token for the assistant API
	APIKey string `env:"API_KEY"`

	// AssistantID identifies the assistant that answers search queries
	AssistantID string `env:"ASSISTANT_ID"`
}

// PollConfig bounds the run status polling loop
type PollConfig struct {
	// Delay is the wait before each status check
	Delay time.Duration `env:"POLL_DELAY" envDefault:"5s" validate:"gt=0"`

	// MaxAttempts is the total number of status checks allowed for one run
	MaxAttempts int `env:"POLL_MAX_ATTEMPTS" envDefault:"20" validate:"min=1,max=1000"`
}

// BreakerConfig holds circuit breaker configuration for the assistant client
type BreakerConfig struct {
	// Threshold is the number of consecutive transport failures that opens the circuit
	Threshold int `env:"BREAKER_THRESHOLD" envDefault:"5" validate:"min=1"`

	// Cooldown is how long the circuit stays open before a probe call is allowed
	Cooldown time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s" validate:"gt=0"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port int `env:"HTTP_PORT" envDefault:"3001" validate:"min=1,max=65535"`

	// RateLimit is the per-client request budget for /search in limiter format, e.g. "30-M"
	RateLimit string `env:"RATE_LIMIT" envDefault:"30-M" validate:"required"`

	// NonceRateLimit is the per-client request budget for /nonce
	NonceRateLimit string `env:"NONCE_RATE_LIMIT" envDefault:"60-M" validate:"required"`

	// NonceTTL is how long an issued caller token stays valid
	NonceTTL time.Duration `env:"NONCE_TTL" envDefault:"12h" validate:"gt=0"`
}

// Config holds all configuration for TravelBuddy
type Config struct {
	// Verbosity controls output level
	Verbosity Verbosity `env:"VERBOSITY" envDefault:"normal" validate:"oneof=normal verbose debug"`

	// Credentials for the assistant API; env values override the settings file
	Credentials Credentials

	// BaseURL overrides the assistant API endpoint (empty means the SDK default)
	BaseURL string `env:"BASE_URL" validate:"omitempty,url"`

	// SettingsFile is the YAML file holding operator-managed credentials;
	// empty means settings.DefaultFile
	SettingsFile string `env:"SETTINGS_FILE"`

	// Poll bounds the status polling loop
	Poll PollConfig

	// RequestTimeout caps a whole search; zero lets the caller derive it from the poll budget
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"0s" validate:"gte=0"`

	// MaxConcurrent caps simultaneous searches per API key
	MaxConcurrent int `env:"MAX_CONCURRENT" envDefault:"4" validate:"min=1"`

	// Breaker configures fail-fast behaviour when the assistant API is down
	Breaker BreakerConfig

	// Server holds server-related configuration
	Server ServerConfig

	// CORSOrigins lists the origins allowed to call the HTTP API from a browser
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// envCredentials is what the environment supplied, kept for reloads
	envCredentials Credentials
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates a new Config instance from environment variables.
// .env and .env.local are loaded first when present; variables already set in
// the process environment are never overridden by them.
func New() (*Config, error) {
	if err := loadEnvFiles(".env", ".env.local"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = settings.DefaultFile
	}

	cfg.envCredentials = cfg.Credentials
	creds, err := cfg.CurrentCredentials()
	if err != nil {
		return nil, err
	}
	cfg.Credentials = creds

	return cfg, nil
}

// CurrentCredentials re-reads the settings file and overlays the credentials
// taken from the environment, so values saved while the server runs are
// picked up without a restart.
func (c *Config) CurrentCredentials() (Credentials, error) {
	stored, err := settings.Load(c.SettingsFile)
	if err != nil {
		return Credentials{}, err
	}
	merged := stored.Merge(settings.Settings{
		APIKey:      c.envCredentials.APIKey,
		AssistantID: c.envCredentials.AssistantID,
	})
	return Credentials{APIKey: merged.APIKey, AssistantID: merged.AssistantID}, nil
}

// RequireCredentials reports which credential is missing, API key first
func (c *Config) RequireCredentials() error {
	if c.Credentials.APIKey == "" {
		return ErrAPIKeyMissing
	}
	if c.Credentials.AssistantID == "" {
		return ErrAssistantIDMissing
	}
	return nil
}

// IsVerbose returns true if verbosity is verbose or debug
func (c *Config) IsVerbose() bool {
	return c.Verbosity == VerbosityVerbose || c.Verbosity == VerbosityDebug
}

// IsDebug returns true if verbosity is debug
func (c *Config) IsDebug() bool {
	return c.Verbosity == VerbosityDebug
}

// loadEnvFiles loads the given dotenv files that exist, in order
func loadEnvFiles(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}
