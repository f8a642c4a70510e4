// Package openai provides a Streamer implementation for the OpenAI Chat
// Completions API and compatible endpoints.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/germanamz/nbask/pkg/chats/chat"
	"github.com/germanamz/nbask/pkg/chats/content"
	"github.com/germanamz/nbask/pkg/chats/message"
	"github.com/germanamz/nbask/pkg/chats/role"
	"github.com/germanamz/nbask/pkg/modeladapter"
	"github.com/germanamz/nbask/pkg/modeladapter/usage"
)

// CompletionsPath is the default chat completions endpoint path.
const CompletionsPath = "/v1/chat/completions"

const doneSentinel = "[DONE]"

var _ modeladapter.Streamer = (*Adapter)(nil)

// Adapter implements modeladapter.Streamer for the OpenAI Chat Completions API.
type Adapter struct {
	modeladapter.ModelAdapter
	// Path is the completions endpoint relative to BaseURL.
	Path string
	// Label prefixes returned errors ("openai" by default).
	Label string
}

// New creates an Adapter configured for the OpenAI API.
// The baseURL should be "https://api.openai.com" (no trailing slash).
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{Path: CompletionsPath, Label: "openai"}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{Key: apiKey}
	a.Name = model
	a.MaxTokens = 4096

	return a
}

// Stream sends a conversation to the Chat Completions API with streaming
// enabled, calling onDelta for every content delta, and returns the assembled
// assistant reply.
func (a *Adapter) Stream(ctx context.Context, c *chat.Chat, onDelta modeladapter.DeltaFunc) (message.Message, error) {
	req := a.buildRequest(c)

	var (
		text strings.Builder
		tc   usage.TokenCount
	)

	err := a.PostStream(ctx, a.Path, req, func(ev modeladapter.Event) error {
		if string(ev.Data) == doneSentinel {
			return modeladapter.ErrStreamDone
		}

		var chunk apiChunk
		if err := json.Unmarshal(ev.Data, &chunk); err != nil {
			return fmt.Errorf("decode chunk: %w", err)
		}

		if chunk.Error != nil {
			return fmt.Errorf("stream error: %s", chunk.Error.Message)
		}

		if chunk.Usage != nil {
			tc.InputTokens = chunk.Usage.PromptTokens
			tc.OutputTokens = chunk.Usage.CompletionTokens
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			text.WriteString(choice.Delta.Content)
			if err := onDelta(choice.Delta.Content); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return message.Message{}, fmt.Errorf("%s: %w", a.label(), err)
	}

	a.Usage.Add(tc)

	return message.NewText("", role.Assistant, text.String()), nil
}

func (a *Adapter) label() string {
	if a.Label == "" {
		return "openai"
	}
	return a.Label
}

// --- request types ---

type apiRequest struct {
	Model         string            `json:"model"`
	Messages      []apiMessage      `json:"messages"`
	MaxTokens     int               `json:"max_tokens,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	Stream        bool              `json:"stream"`
	StreamOptions *apiStreamOptions `json:"stream_options,omitempty"`
}

type apiStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// apiMessage content is either a plain string or a list of typed parts.
type apiMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type apiPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *apiImageURL `json:"image_url,omitempty"`
}

type apiImageURL struct {
	URL string `json:"url"`
}

// --- stream chunk types ---

type apiChunk struct {
	Choices []apiChoice `json:"choices"`
	Usage   *apiUsage   `json:"usage"`
	Error   *apiError   `json:"error"`
}

type apiChoice struct {
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type apiError struct {
	Message string `json:"message"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(c *chat.Chat) apiRequest {
	req := apiRequest{
		Model:         a.Name,
		MaxTokens:     a.MaxTokens,
		Stream:        true,
		StreamOptions: &apiStreamOptions{IncludeUsage: true},
	}

	if a.Temperature != 0 {
		t := a.Temperature
		req.Temperature = &t
	}

	for _, m := range c.Messages() {
		if msg, ok := toAPIMessage(m); ok {
			req.Messages = append(req.Messages, msg)
		}
	}

	return req
}

func toAPIMessage(m message.Message) (apiMessage, bool) {
	var r string
	switch m.Role {
	case role.System:
		r = "system"
	case role.Assistant:
		r = "assistant"
	default:
		r = "user"
	}

	// Only user messages may carry image parts; others keep their text.
	if r != "user" || len(m.Images()) == 0 {
		text := m.TextContent()
		if text == "" {
			return apiMessage{}, false
		}
		return apiMessage{Role: r, Content: text}, true
	}

	parts := make([]apiPart, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch v := p.(type) {
		case content.Text:
			if v.Text != "" {
				parts = append(parts, apiPart{Type: "text", Text: v.Text})
			}
		case content.Image:
			parts = append(parts, apiPart{Type: "image_url", ImageURL: &apiImageURL{URL: v.DataURI()}})
		}
	}

	return apiMessage{Role: r, Content: parts}, true
}
