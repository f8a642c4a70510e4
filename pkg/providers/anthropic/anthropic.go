// Package anthropic provides a Streamer implementation for the Anthropic Messages API.
package anthropic

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

const messagesPath = "/v1/messages"

var _ modeladapter.Streamer = (*Adapter)(nil)

// Adapter implements modeladapter.Streamer for the Anthropic Messages API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the Anthropic API.
// The baseURL should be "https://api.anthropic.com" (no trailing slash).
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{
		Key:    apiKey,
		Header: "x-api-key",
	}
	a.Name = model
	a.MaxTokens = 4096
	a.Headers = map[string]string{
		"anthropic-version": "2023-06-01",
	}

	return a
}

// Stream sends a conversation to the Anthropic Messages API with streaming
// enabled, calling onDelta for every text delta, and returns the assembled
// assistant reply.
func (a *Adapter) Stream(ctx context.Context, c *chat.Chat, onDelta modeladapter.DeltaFunc) (message.Message, error) {
	req := a.buildRequest(c)

	var (
		text strings.Builder
		tc   usage.TokenCount
	)

	err := a.PostStream(ctx, messagesPath, req, func(ev modeladapter.Event) error {
		var se streamEvent
		if err := json.Unmarshal(ev.Data, &se); err != nil {
			return fmt.Errorf("decode %q event: %w", ev.Type, err)
		}

		switch se.Type {
		case "message_start":
			tc.InputTokens = se.Message.Usage.InputTokens
		case "content_block_delta":
			if se.Delta.Type != "text_delta" || se.Delta.Text == "" {
				return nil
			}
			text.WriteString(se.Delta.Text)
			return onDelta(se.Delta.Text)
		case "message_delta":
			tc.OutputTokens = se.Usage.OutputTokens
		case "message_stop":
			return modeladapter.ErrStreamDone
		case "error":
			return fmt.Errorf("stream error %s: %s", se.Error.Type, se.Error.Message)
		}

		return nil
	})
	if err != nil {
		return message.Message{}, fmt.Errorf("anthropic: %w", err)
	}

	a.Usage.Add(tc)

	return message.NewText("", role.Assistant, text.String()), nil
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
	Stream      bool         `json:"stream"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type   string     `json:"type"`
	Text   string     `json:"text,omitempty"`
	Source *apiSource `json:"source,omitempty"`
}

type apiSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// --- stream event types ---

type streamEvent struct {
	Type    string `json:"type"`
	Message struct {
		Usage apiUsage `json:"usage"`
	} `json:"message"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage apiUsage `json:"usage"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(c *chat.Chat) apiRequest {
	req := apiRequest{
		Model:     a.Name,
		MaxTokens: a.MaxTokens,
		System:    c.SystemPrompt(),
		Stream:    true,
	}

	if a.Temperature != 0 {
		t := a.Temperature
		req.Temperature = &t
	}

	for _, m := range c.Turns() {
		appendMessage(&req.Messages, m)
	}

	return req
}

// appendMessage converts m into content blocks. Image blocks are only
// accepted in user turns, so images on assistant messages are left out.
func appendMessage(msgs *[]apiMessage, m message.Message) {
	msgRole := mapRole(m.Role)

	for _, p := range m.Parts {
		block := partToBlock(p)
		if block == nil || (block.Type == "image" && msgRole == "assistant") {
			continue
		}

		// Merge into the last message if it has the same role.
		if len(*msgs) > 0 && (*msgs)[len(*msgs)-1].Role == msgRole {
			(*msgs)[len(*msgs)-1].Content = append((*msgs)[len(*msgs)-1].Content, *block)
			continue
		}

		*msgs = append(*msgs, apiMessage{
			Role:    msgRole,
			Content: []apiContent{*block},
		})
	}
}

func partToBlock(p content.Part) *apiContent {
	switch v := p.(type) {
	case content.Text:
		if v.Text == "" {
			return nil
		}
		return &apiContent{Type: "text", Text: v.Text}
	case content.Image:
		if len(v.Data) == 0 {
			return &apiContent{Type: "image", Source: &apiSource{Type: "url", URL: v.URL}}
		}
		return &apiContent{Type: "image", Source: &apiSource{
			Type:      "base64",
			MediaType: v.MediaType,
			Data:      v.Base64(),
		}}
	default:
		return nil
	}
}

func mapRole(r role.Role) string {
	if r == role.Assistant {
		return "assistant"
	}
	return "user"
}
