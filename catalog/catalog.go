package catalog

import (
	"sort"
	"strings"
)

// Output-token budget bounds used when no exact or family entry matches.
const (
	// contextFraction is the share of the context window assumed safe for
	// output when a model publishes no explicit output limit.
	contextFraction = 4

	minOutputTokens = 1024
	maxOutputTokens = 16384

	// MaxListSize caps how many models a catalog listing returns.
	MaxListSize = 50

	// MinContextLength excludes models whose window is too small to hold a
	// module prompt plus its response.
	MinContextLength = 8000
)

// ModelInfo describes one model's capabilities and, where known, pricing.
type ModelInfo struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ContextLength   int     `json:"context_length"`
	MaxOutput       int     `json:"max_output_tokens"`
	SupportsImages  bool    `json:"supports_images"`
	SupportsSearch  bool    `json:"supports_search"`
	Streaming       bool    `json:"streaming"`
	PromptPrice     float64 `json:"prompt_price,omitempty"`     // USD per 1M tokens
	CompletionPrice float64 `json:"completion_price,omitempty"` // USD per 1M tokens
}

// family is a vendor-family heuristic applied when an exact model id is
// unlisted. Patterns are matched as substrings of the lowercased id.
type family struct {
	pattern        string
	contextLength  int
	maxOutput      int
	supportsImages bool
	supportsSearch bool
}

var families = []family{
	{pattern: "gemini-2.5", contextLength: 1048576, maxOutput: 16384, supportsImages: true, supportsSearch: true},
	{pattern: "gemini", contextLength: 1048576, maxOutput: 8192, supportsSearch: true},
	{pattern: "gpt-4o", contextLength: 128000, maxOutput: 16384},
	{pattern: "gpt-4", contextLength: 128000, maxOutput: 8192},
	{pattern: "gpt-3.5", contextLength: 16385, maxOutput: 4096},
	{pattern: "claude", contextLength: 200000, maxOutput: 8192},
	{pattern: "llama", contextLength: 131072, maxOutput: 4096},
	{pattern: "mistral", contextLength: 32768, maxOutput: 4096},
	{pattern: "qwen", contextLength: 131072, maxOutput: 8192},
	{pattern: "deepseek", contextLength: 131072, maxOutput: 8192},
}

// Lookup resolves capability metadata for a model id. Exact entries from
// known lists win; otherwise the first matching family heuristic applies;
// otherwise a conservative descriptor with zero context is returned and the
// caller should rely on OutputBudget's clamped fallback.
func Lookup(id string) ModelInfo {
	lower := strings.ToLower(id)
	for _, m := range knownModels {
		if strings.ToLower(m.ID) == lower {
			return m
		}
	}
	for _, f := range families {
		if strings.Contains(lower, f.pattern) {
			return ModelInfo{
				ID:             id,
				Name:           id,
				ContextLength:  f.contextLength,
				MaxOutput:      f.maxOutput,
				SupportsImages: f.supportsImages,
				SupportsSearch: f.supportsSearch,
				Streaming:      true,
			}
		}
	}
	return ModelInfo{ID: id, Name: id, Streaming: true}
}

// OutputBudget returns the maximum safe output-token request for a model.
// Models with an explicit limit use it; otherwise a fraction of the context
// window clamped to [minOutputTokens, maxOutputTokens]; otherwise the floor.
func OutputBudget(id string) int {
	info := Lookup(id)
	if info.MaxOutput > 0 {
		return info.MaxOutput
	}
	if info.ContextLength > 0 {
		budget := info.ContextLength / contextFraction
		if budget < minOutputTokens {
			return minOutputTokens
		}
		if budget > maxOutputTokens {
			return maxOutputTokens
		}
		return budget
	}
	return minOutputTokens
}

// unsuitable marks model families that cannot drive course generation:
// embedding, audio/speech, vision-only, moderation and guard models.
var unsuitable = []string{
	"embed", "embedding", "whisper", "audio", "tts", "speech",
	"moderation", "guard", "vision-only", "ocr", "rerank",
}

// Suitable reports whether a model can be offered for course generation.
func Suitable(m ModelInfo) bool {
	lower := strings.ToLower(m.ID)
	for _, bad := range unsuitable {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	return m.ContextLength == 0 || m.ContextLength >= MinContextLength
}

// FilterAndCap drops unsuitable models, orders the rest by id and bounds the
// list for presentation.
func FilterAndCap(models []ModelInfo) []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, m := range models {
		if Suitable(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > MaxListSize {
		out = out[:MaxListSize]
	}
	return out
}
