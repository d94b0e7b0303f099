package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kbukum/coursegen/catalog"
	"github.com/kbukum/coursegen/codec"
	"github.com/kbukum/coursegen/config"
	"github.com/kbukum/coursegen/course"
	"github.com/kbukum/coursegen/errors"
	"github.com/kbukum/coursegen/generate"
	"github.com/kbukum/coursegen/logger"
	"github.com/kbukum/coursegen/provider"
	"github.com/kbukum/coursegen/resilience"
)

// Name is the provider name this backend registers under.
const Name = "gemini"

// Backend is a generate.Backend implementation over the Gemini API.
type Backend struct {
	client     *genai.Client
	model      string
	imageModel string
	retry      config.GenerationConfig
	log        *logger.Logger
}

var (
	_ generate.Backend        = (*Backend)(nil)
	_ generate.ImageGenerator = (*Backend)(nil)
	_ generate.Researcher     = (*Backend)(nil)
)

// New creates a Backend from configuration. The API key is required.
func New(ctx context.Context, cfg config.GeminiConfig, gen config.GenerationConfig, log *logger.Logger) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, errors.InvalidConfig("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Backend{
		client:     client,
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
		retry:      gen,
		log:        log.WithComponent("gemini"),
	}, nil
}

// Factory returns a provider factory over fixed configuration, for use
// with the backend registry.
func Factory(cfg config.GeminiConfig, gen config.GenerationConfig, log *logger.Logger) provider.Factory[generate.Backend] {
	return func(map[string]any) (generate.Backend, error) {
		return New(context.Background(), cfg, gen, log)
	}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) IsAvailable(ctx context.Context) bool { return b.client != nil }

// SupportsImages reports whether an Imagen model is configured.
func (b *Backend) SupportsImages() bool { return b.imageModel != "" }

// SupportsSearch is always true; Gemini ships the search grounding tool.
func (b *Backend) SupportsSearch() bool { return true }

// Models returns the curated Gemini model list. The Gemini API has no
// public pricing-annotated listing endpoint, so the catalog is the
// source of truth here.
func (b *Backend) Models(ctx context.Context) ([]catalog.ModelInfo, error) {
	return catalog.FilterAndCap(catalog.GeminiModels()), nil
}

// GenerateOutline produces a course outline using native structured
// output, so the response is schema-conformant JSON.
func (b *Backend) GenerateOutline(ctx context.Context, req generate.OutlineRequest) (*course.Outline, error) {
	model := b.pickModel(req.Model)
	prompt := generate.OutlinePrompt(req)

	raw, err := b.generateJSON(ctx, "outline", model, prompt, outlineSchema())
	if err != nil {
		return nil, err
	}
	var outline course.Outline
	if err := codec.Decode(raw, &outline, "outline"); err != nil {
		return nil, err
	}
	return &outline, nil
}

// GenerateModule produces one full module using native structured
// output. The schema mirrors the prompt's optional fields.
func (b *Backend) GenerateModule(ctx context.Context, req generate.ModuleRequest) (*course.Module, error) {
	model := b.pickModel(req.Model)
	prompt := generate.ModulePrompt(req)

	raw, err := b.generateJSON(ctx, "module", model, prompt, moduleSchema(req))
	if err != nil {
		return nil, err
	}
	var mod course.Module
	if err := codec.Decode(raw, &mod, "module"); err != nil {
		return nil, err
	}
	return &mod, nil
}

// Research runs a search-grounded pass over the topic and returns
// synthesized notes plus the web sources grounding drew on.
func (b *Backend) Research(ctx context.Context, topic string) (*generate.ResearchResult, error) {
	model := b.pickModel("")
	prompt := fmt.Sprintf(
		"Research the topic %q for a course being designed about it. Summarize the current state of the subject, key concepts a course should cover, and any recent developments. Write plain prose notes.",
		topic)

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := resilience.Retry(ctx, b.retryConfig("research"), func(int) (*genai.GenerateContentResponse, error) {
		return b.call(ctx, "research", model, prompt, cfg)
	})
	if err != nil {
		return nil, err
	}
	return &generate.ResearchResult{
		Text:    resp.Text(),
		Sources: groundingSources(resp),
	}, nil
}

// GenerateImage renders one illustration through the Imagen endpoint and
// returns it base64-encoded.
func (b *Backend) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if b.imageModel == "" {
		return "", errors.InvalidConfig("no image model configured")
	}
	resp, err := resilience.Retry(ctx, b.retryConfig("image"), func(int) (*genai.GenerateImagesResponse, error) {
		return b.client.Models.GenerateImages(ctx, b.imageModel, prompt, &genai.GenerateImagesConfig{
			NumberOfImages: 1,
		})
	})
	if err != nil {
		return "", err
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", resilience.ErrEmptyResponse
	}
	return base64.StdEncoding.EncodeToString(resp.GeneratedImages[0].Image.ImageBytes), nil
}

// generateJSON runs a schema-constrained generation with retries. The
// output token budget shrinks on each retry so a response that was
// truncated mid-JSON gets a second chance at fitting.
func (b *Backend) generateJSON(ctx context.Context, label, model, prompt string, schema *genai.Schema) (string, error) {
	budget := catalog.OutputBudget(model)
	return resilience.Retry(ctx, b.retryConfig(label), func(attempt int) (string, error) {
		cfg := &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
			MaxOutputTokens:  int32(shrinkBudget(budget, attempt)),
		}
		resp, err := b.call(ctx, label, model, prompt, cfg)
		if err != nil {
			return "", err
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return "", resilience.ErrEmptyResponse
		}
		return text, nil
	})
}

func (b *Backend) call(ctx context.Context, label, model, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	resp, err := b.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		b.log.WithError(err).Warn("gemini call failed", map[string]interface{}{
			logger.FieldModel: model, "op": label,
		})
		return nil, fmt.Errorf("gemini %s call: %w", label, err)
	}
	if len(resp.Candidates) == 0 {
		return nil, resilience.ErrEmptyResponse
	}
	b.log.Debug("gemini call complete", map[string]interface{}{
		logger.FieldModel: model, "op": label, "duration_ms": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

func (b *Backend) retryConfig(label string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig("gemini." + label)
	if b.retry.MaxRetries > 0 {
		cfg.MaxAttempts = b.retry.MaxRetries
	}
	if b.retry.RetryDelayMS > 0 {
		cfg.InitialBackoff = time.Duration(b.retry.RetryDelayMS) * time.Millisecond
	}
	cfg.OnRetry = func(label string, attempt int, err error, backoff time.Duration) {
		b.log.WithError(err).Warn("retrying gemini call", map[string]interface{}{
			"op": label, "attempt": attempt, "backoff_ms": backoff.Milliseconds(),
		})
	}
	return cfg
}

func (b *Backend) pickModel(override string) string {
	if override != "" {
		return override
	}
	return b.model
}

// shrinkBudget halves the output budget on each retry, floored so the
// model still has room for a full module.
func shrinkBudget(budget, attempt int) int {
	const floor = 2048
	for i := 1; i < attempt; i++ {
		budget /= 2
	}
	if budget < floor {
		return floor
	}
	return budget
}

// groundingSources collects the web sources grounding metadata refers
// to, deduplicated by URL.
func groundingSources(resp *genai.GenerateContentResponse) []course.Source {
	var sources []course.Source
	seen := make(map[string]bool)
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
				continue
			}
			seen[chunk.Web.URI] = true
			sources = append(sources, course.Source{
				Title: chunk.Web.Title,
				URL:   chunk.Web.URI,
			})
		}
	}
	return sources
}
