// Package grok configures the OpenAI-compatible streaming adapter for xAI's
// Grok models.
package grok

import (
	"github.com/germanamz/nbask/pkg/providers/openai"
)

// DefaultBaseURL is the base URL for the xAI API.
const DefaultBaseURL = "https://api.x.ai/v1"

// CompletionsPath is the chat completions path relative to DefaultBaseURL.
const CompletionsPath = "/chat/completions"

// New creates an OpenAI-compatible adapter pointed at the xAI API.
// An empty baseURL falls back to DefaultBaseURL.
func New(baseURL, apiKey, model string) *openai.Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := openai.New(baseURL, apiKey, model)
	a.Path = CompletionsPath
	a.Label = "grok"

	return a
}
