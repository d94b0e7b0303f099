package catalog

import "strings"

// knownModels is the exact-match capability table. It doubles as the
// hardcoded fallback when a provider's live catalog fetch fails.
var knownModels = []ModelInfo{
	{
		ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash",
		ContextLength: 1048576, MaxOutput: 16384,
		SupportsImages: true, SupportsSearch: true, Streaming: true,
		PromptPrice: 0.30, CompletionPrice: 2.50,
	},
	{
		ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro",
		ContextLength: 1048576, MaxOutput: 16384,
		SupportsImages: true, SupportsSearch: true, Streaming: true,
		PromptPrice: 1.25, CompletionPrice: 10.00,
	},
	{
		ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash",
		ContextLength: 1048576, MaxOutput: 8192,
		SupportsSearch: true, Streaming: true,
		PromptPrice: 0.10, CompletionPrice: 0.40,
	},
	{
		ID: "gpt-4o", Name: "GPT-4o",
		ContextLength: 128000, MaxOutput: 16384, Streaming: true,
		PromptPrice: 2.50, CompletionPrice: 10.00,
	},
	{
		ID: "gpt-4o-mini", Name: "GPT-4o mini",
		ContextLength: 128000, MaxOutput: 16384, Streaming: true,
		PromptPrice: 0.15, CompletionPrice: 0.60,
	},
	{
		ID: "llama-3.3-70b-instruct", Name: "Llama 3.3 70B Instruct",
		ContextLength: 131072, MaxOutput: 4096, Streaming: true,
	},
}

// GeminiModels returns the known Gemini-family models. The Gemini adapter
// serves this as its catalog; the API's model list endpoint adds nothing the
// capability table doesn't already know.
func GeminiModels() []ModelInfo {
	out := make([]ModelInfo, 0, len(knownModels))
	for _, m := range knownModels {
		if strings.HasPrefix(m.ID, "gemini") {
			out = append(out, m)
		}
	}
	return out
}

// FallbackModels returns a small list of well-known chat models for
// OpenAI-compatible endpoints whose catalog fetch failed.
func FallbackModels() []ModelInfo {
	return []ModelInfo{
		Lookup("gpt-4o"),
		Lookup("gpt-4o-mini"),
		Lookup("llama-3.3-70b-instruct"),
	}
}
