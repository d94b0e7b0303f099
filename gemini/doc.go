// Package gemini implements the generation backend for Google's Gemini
// API. Outlines and modules use native structured output; the research
// pass uses the Google Search grounding tool, which the API does not
// allow to be combined with a response schema, so its output stays free
// text. Lesson images come from the Imagen endpoint.
package gemini
