package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/coursegen/errors"
	"github.com/kbukum/coursegen/generate"
	"github.com/kbukum/coursegen/logger"
	"github.com/kbukum/coursegen/observability"
	"github.com/kbukum/coursegen/server/middleware"
)

const availabilityTimeout = 2 * time.Second

// Handlers owns the API route implementations over the backend registry.
type Handlers struct {
	registry *generate.Registry
	version  string
	log      *logger.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(registry *generate.Registry, version string, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Handlers{registry: registry, version: version, log: log.WithComponent("api")}
}

// Register mounts all routes on the engine. The auth middleware guards
// the API group when non-nil; health stays open for probes.
func (h *Handlers) Register(engine *gin.Engine, auth gin.HandlerFunc, rateLimit gin.HandlerFunc) {
	engine.GET("/healthz", h.health)

	api := engine.Group("/api")
	if auth != nil {
		api.Use(auth)
	}
	api.GET("/providers", h.listProviders)
	api.GET("/providers/:name/models", h.listModels)

	gen := api.Group("/courses")
	if rateLimit != nil {
		gen.Use(rateLimit)
	}
	gen.POST("/generate", h.generateCourse)
}

// RegisterDefault mounts the standard middleware stack plus all routes.
func (h *Handlers) RegisterDefault(engine *gin.Engine, auth gin.HandlerFunc) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.Use(middleware.RequestLogger(h.log))
	h.Register(engine, auth, middleware.RateLimit(middleware.RateLimitConfig{}))
}

func (h *Handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), availabilityTimeout)
	defer cancel()

	health := observability.NewServiceHealth("coursegen", h.version)
	for _, name := range h.registry.List() {
		backend, err := generate.Resolve(h.registry, name)
		if err != nil {
			health.AddComponent(observability.Health{
				Name: name, Status: observability.HealthStatusDown, Message: err.Error(),
			})
			continue
		}
		status := observability.HealthStatusUp
		if !backend.IsAvailable(ctx) {
			status = observability.HealthStatusDown
		}
		health.AddComponent(observability.Health{Name: name, Status: status})
	}

	code := http.StatusOK
	if health.Status == observability.HealthStatusDown {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

type providerInfo struct {
	Name           string `json:"name"`
	SupportsImages bool   `json:"supports_images"`
	SupportsSearch bool   `json:"supports_search"`
}

func (h *Handlers) listProviders(c *gin.Context) {
	providers := make([]providerInfo, 0)
	for _, name := range h.registry.List() {
		backend, err := generate.Resolve(h.registry, name)
		if err != nil {
			continue
		}
		providers = append(providers, providerInfo{
			Name:           backend.Name(),
			SupportsImages: backend.SupportsImages(),
			SupportsSearch: backend.SupportsSearch(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (h *Handlers) listModels(c *gin.Context) {
	backend, err := generate.Resolve(h.registry, c.Param("name"))
	if err != nil {
		h.abortError(c, err)
		return
	}
	models, err := backend.Models(c.Request.Context())
	if err != nil {
		h.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

// abortError maps an error to the client-facing JSON error shape.
func (h *Handlers) abortError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
