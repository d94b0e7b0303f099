package config

import (
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("COURSEGEN_PROVIDERS_GEMINI_API_KEY", "test-key")
	t.Setenv("COURSEGEN_SERVER_PORT", "9090")
	t.Setenv("COURSEGEN_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Providers.Gemini.APIKey != "test-key" {
		t.Errorf("Gemini.APIKey = %q", cfg.Providers.Gemini.APIKey)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COURSEGEN_PROVIDERS_OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Providers.OpenAI.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("default base url = %q", cfg.Providers.OpenAI.BaseURL)
	}
	if cfg.Providers.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("default gemini model = %q", cfg.Providers.Gemini.Model)
	}
	if cfg.Generation.MaxRetries != 3 {
		t.Errorf("default max retries = %d", cfg.Generation.MaxRetries)
	}
}

func TestLoadFailsWithoutProviders(t *testing.T) {
	// No provider keys in the environment.
	t.Setenv("COURSEGEN_PROVIDERS_GEMINI_API_KEY", "")
	t.Setenv("COURSEGEN_PROVIDERS_OPENAI_API_KEY", "")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() = nil error without any provider credentials")
	}
}

func TestValidateRejectsShortJWTSecret(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Providers.Gemini.APIKey = "k"
	cfg.Auth.JWTSecret = "too-short"

	if err := Validate(cfg); err == nil {
		t.Error("Validate() = nil for short jwt secret")
	}

	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
