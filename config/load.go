package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/kbukum/coursegen/errors"
)

// envPrefix namespaces environment variables, e.g. COURSEGEN_SERVER_PORT.
const envPrefix = "COURSEGEN"

// Load reads configuration from an optional YAML file, a .env file if one
// exists in the working directory, and environment variables. Environment
// variables win. Returns a validated Config or a configuration error.
func Load(configFile string) (*Config, error) {
	// .env is a development convenience; its absence is not an error.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, apperrors.InvalidConfig(fmt.Sprintf("loading .env: %v", err))
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.InvalidConfig(fmt.Sprintf("reading %s: %v", configFile, err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.InvalidConfig(fmt.Sprintf("unmarshaling: %v", err))
	}

	cfg.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindKeys registers every key viper should read from the environment.
// AutomaticEnv alone does not surface nested keys during Unmarshal.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port", "server.read_timeout", "server.write_timeout", "server.idle_timeout",
		"log.level", "log.format", "log.output", "log.no_color",
		"auth.jwt_secret",
		"providers.gemini.api_key", "providers.gemini.model", "providers.gemini.image_model",
		"providers.openai.api_key", "providers.openai.base_url", "providers.openai.model",
		"telemetry.enabled", "telemetry.endpoint", "telemetry.environment", "telemetry.sample_rate",
		"generation.max_retries", "generation.retry_delay_ms",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// Validate checks structural constraints and the startup credential rule:
// the service refuses to start without at least one configured provider.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return apperrors.InvalidConfig(err.Error())
	}
	if err := cfg.Log.Validate(); err != nil {
		return apperrors.InvalidConfig(err.Error())
	}
	if !cfg.Providers.Enabled() {
		return apperrors.InvalidConfig("no provider configured: set providers.gemini.api_key or providers.openai.api_key")
	}
	return nil
}
