package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/kbukum/coursegen/catalog"
)

// modelEntry is the superset of the model fields OpenAI-compatible
// endpoints return. OpenAI itself sends only id; OpenRouter-style
// gateways add context length and per-token pricing as strings.
type modelEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
	Pricing       *struct {
		Prompt     string `json:"prompt"`
		Completion string `json:"completion"`
	} `json:"pricing"`
	TopProvider *struct {
		MaxCompletionTokens int `json:"max_completion_tokens"`
	} `json:"top_provider"`
}

type modelsResponse struct {
	Data []modelEntry `json:"data"`
}

// Models lists the endpoint's models, enriched with catalog metadata
// where the listing is sparse, filtered to generation-suitable ones.
// When the endpoint cannot be listed the curated fallback set is
// returned so a degraded gateway never empties the model picker.
func (b *Backend) Models(ctx context.Context) ([]catalog.ModelInfo, error) {
	entries, err := b.listModels(ctx)
	if err != nil {
		b.log.WithError(err).Warn("model listing failed, serving fallback models")
		return catalog.FilterAndCap(catalog.FallbackModels()), nil
	}

	models := make([]catalog.ModelInfo, 0, len(entries))
	for _, e := range entries {
		models = append(models, e.toModelInfo())
	}
	return catalog.FilterAndCap(models), nil
}

func (b *Backend) listModels(ctx context.Context) ([]modelEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/models", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Error on close is safe to ignore for read operations

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var listing modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return listing.Data, nil
}

func (e modelEntry) toModelInfo() catalog.ModelInfo {
	// Start from catalog knowledge of the id, then prefer whatever the
	// endpoint actually reported.
	info := catalog.Lookup(e.ID)
	if e.Name != "" {
		info.Name = e.Name
	}
	if e.ContextLength > 0 {
		info.ContextLength = e.ContextLength
	}
	if e.TopProvider != nil && e.TopProvider.MaxCompletionTokens > 0 {
		info.MaxOutput = e.TopProvider.MaxCompletionTokens
	}
	if e.Pricing != nil {
		// OpenRouter prices are USD per token; the catalog stores USD
		// per million tokens.
		if p, err := strconv.ParseFloat(e.Pricing.Prompt, 64); err == nil && p > 0 {
			info.PromptPrice = p * 1e6
		}
		if c, err := strconv.ParseFloat(e.Pricing.Completion, 64); err == nil && c > 0 {
			info.CompletionPrice = c * 1e6
		}
	}
	info.Streaming = true
	return info
}
