package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port '8080', got '%s'", cfg.Port)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("Expected default model 'gpt-4o-mini', got '%s'", cfg.OpenAIModel)
	}
	if cfg.TopicsFile != "topics.json" {
		t.Errorf("Expected default topics file 'topics.json', got '%s'", cfg.TopicsFile)
	}
	if cfg.MaxConcurrentFetches != 10 {
		t.Errorf("Expected default fetch cap 10, got %d", cfg.MaxConcurrentFetches)
	}
	if cfg.DigestSchedule != "0 7 * * *" {
		t.Errorf("Expected default schedule '0 7 * * *', got '%s'", cfg.DigestSchedule)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error when OPENAI_API_KEY is missing")
	}

	configErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
	if configErr.Field != "OPENAI_API_KEY" {
		t.Errorf("Expected field 'OPENAI_API_KEY', got '%s'", configErr.Field)
	}
}

func TestLoadOverrides(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-key")
	os.Setenv("MAX_CONCURRENT_FETCHES", "3")
	os.Setenv("TOPICS_FILE", "custom.json")
	defer func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("MAX_CONCURRENT_FETCHES")
		os.Unsetenv("TOPICS_FILE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got error: %v", err)
	}

	if cfg.MaxConcurrentFetches != 3 {
		t.Errorf("Expected fetch cap 3, got %d", cfg.MaxConcurrentFetches)
	}
	if cfg.TopicsFile != "custom.json" {
		t.Errorf("Expected topics file 'custom.json', got '%s'", cfg.TopicsFile)
	}
}

func TestGetEnvOrDefaultInt(t *testing.T) {
	os.Setenv("TEST_INT_VALUE", "not-a-number")
	defer os.Unsetenv("TEST_INT_VALUE")

	if v := getEnvOrDefaultInt("TEST_INT_VALUE", 42); v != 42 {
		t.Errorf("Expected fallback 42 for invalid int, got %d", v)
	}
}
