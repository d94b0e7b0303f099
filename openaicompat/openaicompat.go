package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

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

const (
	// Name is the provider name this backend registers under.
	Name = "openai"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 120 * time.Second

	// outlineBudget bounds outline responses, which are small.
	outlineBudget = 4096
	// moduleSafetyMargin is held back from the model's output budget so
	// a module that runs long still closes its JSON.
	moduleSafetyMargin = 1024

	systemPrompt = "You are an expert course author. You always respond with a single valid JSON object and nothing else."
)

// Backend is a generate.Backend over an OpenAI-compatible HTTP API.
type Backend struct {
	baseURL string
	apiKey  string
	model   string
	retry   config.GenerationConfig
	client  *http.Client
	log     *logger.Logger
}

var _ generate.Backend = (*Backend)(nil)

// New creates a Backend from configuration. The API key is required;
// base URL and model fall back to OpenAI defaults.
func New(cfg config.OpenAIConfig, gen config.GenerationConfig, log *logger.Logger) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, errors.InvalidConfig("openai api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
		retry:   gen,
		client:  &http.Client{Timeout: defaultTimeout},
		log:     log.WithComponent("openaicompat"),
	}, nil
}

// Factory returns a provider factory over fixed configuration, for use
// with the backend registry.
func Factory(cfg config.OpenAIConfig, gen config.GenerationConfig, log *logger.Logger) provider.Factory[generate.Backend] {
	return func(map[string]any) (generate.Backend, error) {
		return New(cfg, gen, log)
	}
}

func (b *Backend) Name() string { return Name }

// IsAvailable checks whether the models endpoint answers.
func (b *Backend) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/models", http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// SupportsImages is false; the chat-completions surface has no image
// generation endpoint common across compatible providers.
func (b *Backend) SupportsImages() bool { return false }

// SupportsSearch is false; grounding is a provider-specific extension.
func (b *Backend) SupportsSearch() bool { return false }

// GenerateOutline produces a course outline via a prompt-engineered
// JSON response.
func (b *Backend) GenerateOutline(ctx context.Context, req generate.OutlineRequest) (*course.Outline, error) {
	model := b.pickModel(req.Model)
	prompt := generate.OutlinePrompt(req) + generate.OutlineJSONInstructions()

	budget := catalog.OutputBudget(model)
	if budget > outlineBudget {
		budget = outlineBudget
	}

	raw, err := b.complete(ctx, "outline", model, prompt, budget)
	if err != nil {
		return nil, err
	}
	var outline course.Outline
	if err := codec.Decode(raw, &outline, "outline"); err != nil {
		return nil, err
	}
	return &outline, nil
}

// GenerateModule produces one full module via a prompt-engineered JSON
// response. The token budget leaves a safety margin so long modules do
// not truncate mid-object.
func (b *Backend) GenerateModule(ctx context.Context, req generate.ModuleRequest) (*course.Module, error) {
	model := b.pickModel(req.Model)
	prompt := generate.ModulePrompt(req) + generate.ModuleJSONInstructions(req)

	budget := catalog.OutputBudget(model) - moduleSafetyMargin
	if budget < moduleSafetyMargin {
		budget = moduleSafetyMargin
	}

	raw, err := b.complete(ctx, "module", model, prompt, budget)
	if err != nil {
		return nil, err
	}
	var mod course.Module
	if err := codec.Decode(raw, &mod, "module"); err != nil {
		return nil, err
	}
	return &mod, nil
}

// complete runs a chat completion with retries. The output budget
// shrinks on each retry so responses that truncated mid-JSON get a
// chance to fit.
func (b *Backend) complete(ctx context.Context, label, model, prompt string, budget int) (string, error) {
	return resilience.Retry(ctx, b.retryConfig(label), func(attempt int) (string, error) {
		tokens := budget
		for i := 1; i < attempt; i++ {
			tokens = tokens * 3 / 4
		}
		resp, err := b.doChat(ctx, chatRequest{
			Model: model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
			MaxTokens:   tokens,
			Temperature: 0.7,
		})
		if err != nil {
			return "", fmt.Errorf("%s %s: %w", Name, label, err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", resilience.ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	})
}

func (b *Backend) retryConfig(label string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig(Name + "." + label)
	if b.retry.MaxRetries > 0 {
		cfg.MaxAttempts = b.retry.MaxRetries
	}
	if b.retry.RetryDelayMS > 0 {
		cfg.InitialBackoff = time.Duration(b.retry.RetryDelayMS) * time.Millisecond
	}
	cfg.OnRetry = func(label string, attempt int, err error, backoff time.Duration) {
		b.log.WithError(err).Warn("retrying chat completion", map[string]interface{}{
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

// --- chat completions wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (b *Backend) doChat(ctx context.Context, req chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	start := time.Now()
	httpResp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close() //nolint:errcheck // Error on close is safe to ignore for read operations

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	b.log.Debug("chat completion complete", map[string]interface{}{
		logger.FieldModel: req.Model,
		"duration_ms":     time.Since(start).Milliseconds(),
		"tokens":          resp.Usage.CompletionTokens,
	})
	return &resp, nil
}
