package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultPort       = "3000"
	DefaultTimeout    = 60 * time.Second
)

type Config struct {
	GeminiKey          string
	TextModel          string
	ImageModel         string
	DatabaseURL        string
	SlackToken         string
	SlackSigningSecret string
	LinearToken        string
	LinearTeamID       string
	Port               string
	RequestTimeout     time.Duration
}

// ConfigurationError reports a missing or malformed setting. It is fatal:
// nothing talks to the generative service until it is resolved.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// LoadConfig loads configuration from environment variables
// It first tries to load from .env file, then falls back to system environment variables
func LoadConfig(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not found or couldn't be loaded", zap.Error(err))
	}

	cfg := &Config{
		GeminiKey:          getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		TextModel:          getEnv("GEMINI_TEXT_MODEL", DefaultTextModel),
		ImageModel:         getEnv("GEMINI_IMAGE_MODEL", DefaultImageModel),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SlackToken:         getEnv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		LinearToken:        getEnv("LINEAR_API_KEY", ""),
		LinearTeamID:       getEnv("LINEAR_TEAM_ID", ""),
		Port:               getEnv("PORT", DefaultPort),
		RequestTimeout:     DefaultTimeout,
	}

	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			logger.Warn("ignoring invalid REQUEST_TIMEOUT", zap.String("value", raw))
		} else {
			cfg.RequestTimeout = d
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks the settings every command needs. Slack and Linear are
// optional, but each needs both of its values or neither.
func (c *Config) Validate() error {
	if c.GeminiKey == "" {
		return &ConfigurationError{Key: "GEMINI_API_KEY", Reason: "is required"}
	}
	if c.SlackToken != "" && c.SlackSigningSecret == "" {
		return &ConfigurationError{Key: "SLACK_SIGNING_SECRET", Reason: "is required when SLACK_BOT_TOKEN is set"}
	}
	if c.LinearToken != "" && c.LinearTeamID == "" {
		return &ConfigurationError{Key: "LINEAR_TEAM_ID", Reason: "is required when LINEAR_API_KEY is set"}
	}
	return nil
}

func (c *Config) SlackEnabled() bool {
	return c.SlackToken != ""
}

func (c *Config) LinearEnabled() bool {
	return c.LinearToken != ""
}

func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}
