package config

import (
	"github.com/kbukum/coursegen/logger"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        logger.Config    `mapstructure:"log"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Generation GenerationConfig `mapstructure:"generation"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port" validate:"gt=0,lt=65536"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // seconds; 0 disables, required for SSE
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // seconds
}

// AuthConfig contains API authentication settings. An empty secret disables
// authentication on the generation endpoint.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
}

// ProvidersConfig groups per-vendor credentials and defaults. At least one
// provider must be configured.
type ProvidersConfig struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// Enabled reports whether any provider has credentials.
func (p ProvidersConfig) Enabled() bool {
	return p.Gemini.APIKey != "" || p.OpenAI.APIKey != ""
}

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	ImageModel string `mapstructure:"image_model"`
}

// OpenAIConfig configures the OpenAI-compatible adapter. BaseURL may point at
// any chat-completions endpoint that speaks the OpenAI wire format.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// GenerationConfig tunes the pipeline's retry policy.
type GenerationConfig struct {
	MaxRetries   int `mapstructure:"max_retries" validate:"omitempty,gte=1,lte=10"`
	RetryDelayMS int `mapstructure:"retry_delay_ms"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120
	}
	c.Log.ApplyDefaults()
	if c.Providers.Gemini.Model == "" {
		c.Providers.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Providers.Gemini.ImageModel == "" {
		c.Providers.Gemini.ImageModel = "imagen-3.0-generate-002"
	}
	if c.Providers.OpenAI.BaseURL == "" {
		c.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.Providers.OpenAI.Model == "" {
		c.Providers.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = "development"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	if c.Generation.MaxRetries == 0 {
		c.Generation.MaxRetries = 3
	}
	if c.Generation.RetryDelayMS == 0 {
		c.Generation.RetryDelayMS = 2000
	}
}
