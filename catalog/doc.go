// Package catalog describes what models can do: image generation, search
// grounding, streaming, context window, and a safe output-token budget.
//
// Lookups fall back from exact model id to family-pattern heuristics to a
// conservative fraction of the context window, so unknown models still get a
// usable budget. Live catalog fetches are optional; every provider ships a
// small hardcoded list of well-known models for when the fetch fails.
package catalog
