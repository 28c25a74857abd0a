package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// OpenAI API settings
	OpenAIAPIKey string `json:"-"` // Don't expose in JSON
	OpenAIModel  string `json:"openai_model"`

	// Slack settings (optional; digest delivery is skipped when empty)
	SlackBotToken string `json:"-"`
	SlackChannel  string `json:"slack_channel"`

	// Topic configuration
	TopicsFile string `json:"topics_file"`

	// Fetch settings
	MaxConcurrentFetches int `json:"max_concurrent_fetches"`

	// Digest settings
	DigestSchedule     string `json:"digest_schedule"`      // cron expression
	DigestCacheMinutes int    `json:"digest_cache_minutes"` // TTL for cached digests
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Host:                 getEnvOrDefault("HOST", "0.0.0.0"),
		OpenAIAPIKey:         getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		SlackBotToken:        getEnvOrDefault("SLACK_BOT_TOKEN", ""),
		SlackChannel:         getEnvOrDefault("SLACK_CHANNEL", "#daily-digest"),
		TopicsFile:           getEnvOrDefault("TOPICS_FILE", "topics.json"),
		MaxConcurrentFetches: getEnvOrDefaultInt("MAX_CONCURRENT_FETCHES", 10),
		DigestSchedule:       getEnvOrDefault("DIGEST_SCHEDULE", "0 7 * * *"),
		DigestCacheMinutes:   getEnvOrDefaultInt("DIGEST_CACHE_MINUTES", 30),
	}

	return config, config.validate()
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Message: "OpenAI API key is required"}
	}
	if c.MaxConcurrentFetches < 1 {
		return &ConfigError{Field: "MAX_CONCURRENT_FETCHES", Message: "must be at least 1"}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
