// Package openaicompat implements the generation backend for any
// endpoint speaking the OpenAI chat-completions wire format, including
// OpenAI itself, OpenRouter, and local gateways. These endpoints give no
// structured-output guarantee, so prompts carry explicit JSON
// instructions and responses go through the lenient codec.
package openaicompat
