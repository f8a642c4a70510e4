// Package providers groups the streaming LLM adapters.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/nbask/pkg/providers/anthropic]: Anthropic Messages API
//   - [github.com/germanamz/nbask/pkg/providers/openai]: OpenAI Chat Completions API and compatible endpoints
//   - [github.com/germanamz/nbask/pkg/providers/grok]: xAI Grok via the OpenAI-compatible adapter
//   - [github.com/germanamz/nbask/pkg/providers/gemini]: Google Gemini streamGenerateContent
//
// Every adapter embeds [github.com/germanamz/nbask/pkg/modeladapter.ModelAdapter]
// and implements [github.com/germanamz/nbask/pkg/modeladapter.Streamer].
package providers
