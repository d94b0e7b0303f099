// Command coursegen serves the course generation API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/coursegen/auth"
	"github.com/kbukum/coursegen/config"
	"github.com/kbukum/coursegen/gemini"
	"github.com/kbukum/coursegen/generate"
	"github.com/kbukum/coursegen/logger"
	"github.com/kbukum/coursegen/observability"
	"github.com/kbukum/coursegen/openaicompat"
	"github.com/kbukum/coursegen/server"
	"github.com/kbukum/coursegen/server/middleware"
	"github.com/kbukum/coursegen/version"
)

const (
	serviceName = "coursegen"

	tokenTTL = 24 * time.Hour
)

func main() {
	configFile := flag.String("config", "", "path to config file (optional; env vars take precedence)")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Init(cfg.Log)
	log := logger.GetGlobalLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Init(ctx, cfg.Telemetry, serviceName, version.Short(), log)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("telemetry shutdown failed")
		}
	}()

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	var authMW gin.HandlerFunc
	if cfg.Auth.JWTSecret != "" {
		svc, err := auth.NewService(cfg.Auth.JWTSecret, tokenTTL)
		if err != nil {
			return fmt.Errorf("initializing auth: %w", err)
		}
		authMW = middleware.Auth(middleware.AuthConfig{TokenValidator: svc.ValidatorFunc()})
	}

	srv := server.New(cfg.Server, log)
	handlers := server.NewHandlers(registry, version.Short(), log)
	handlers.RegisterDefault(srv.GinEngine(), authMW)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	return srv.Stop(context.Background())
}

// buildRegistry registers a factory per configured provider. Backends
// are created lazily on first use so one misconfigured provider does
// not keep the rest from serving.
func buildRegistry(cfg *config.Config, log *logger.Logger) (*generate.Registry, error) {
	registry := generate.NewRegistry()

	if cfg.Providers.Gemini.APIKey != "" {
		registry.RegisterFactory(gemini.Name, gemini.Factory(cfg.Providers.Gemini, cfg.Generation, log))
		log.Info("provider registered", map[string]interface{}{logger.FieldProvider: gemini.Name})
	}
	if cfg.Providers.OpenAI.APIKey != "" {
		registry.RegisterFactory(openaicompat.Name, openaicompat.Factory(cfg.Providers.OpenAI, cfg.Generation, log))
		log.Info("provider registered", map[string]interface{}{logger.FieldProvider: openaicompat.Name})
	}

	if len(registry.List()) == 0 {
		return nil, fmt.Errorf("no providers configured; set a gemini or openai api key")
	}
	return registry, nil
}
