// Package gemini provides a Streamer implementation for the Google Gemini API.
package gemini

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

var _ modeladapter.Streamer = (*Adapter)(nil)

// Adapter implements modeladapter.Streamer for the Google Gemini API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the Gemini API.
// The baseURL should be "https://generativelanguage.googleapis.com" (no trailing slash).
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{
		Key:    apiKey,
		Header: "x-goog-api-key",
	}
	a.Name = model
	a.MaxTokens = 8192

	return a
}

// Stream sends a conversation to streamGenerateContent and calls onDelta for
// every text part of every streamed candidate.
func (a *Adapter) Stream(ctx context.Context, c *chat.Chat, onDelta modeladapter.DeltaFunc) (message.Message, error) {
	req := a.buildRequest(c)
	path := fmt.Sprintf("/v1beta/models/%s:streamGenerateContent?alt=sse", a.Name)

	var (
		text strings.Builder
		tc   usage.TokenCount
	)

	err := a.PostStream(ctx, path, req, func(ev modeladapter.Event) error {
		var resp apiResponse
		if err := json.Unmarshal(ev.Data, &resp); err != nil {
			return fmt.Errorf("decode chunk: %w", err)
		}

		if resp.PromptFeedback.BlockReason != "" {
			return fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}

		if resp.UsageMetadata.PromptTokenCount > 0 || resp.UsageMetadata.CandidatesTokenCount > 0 {
			tc.InputTokens = resp.UsageMetadata.PromptTokenCount
			tc.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
		}

		if len(resp.Candidates) == 0 {
			return nil
		}

		for _, p := range resp.Candidates[0].Content.Parts {
			// Thought summaries are not part of the answer.
			if p.Text == "" || p.Thought {
				continue
			}
			text.WriteString(p.Text)
			if err := onDelta(p.Text); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return message.Message{}, fmt.Errorf("gemini: %w", err)
	}

	a.Usage.Add(tc)

	return message.NewText("", role.Assistant, text.String()), nil
}

// --- request types ---

type apiRequest struct {
	Contents          []apiContent     `json:"contents"`
	SystemInstruction *apiContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text       string         `json:"text,omitempty"`
	Thought    bool           `json:"thought,omitempty"`
	InlineData *apiInlineData `json:"inlineData,omitempty"`
	FileData   *apiFileData   `json:"fileData,omitempty"`
}

type apiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type apiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
}

// --- response types ---

type apiResponse struct {
	Candidates     []apiCandidate `json:"candidates"`
	UsageMetadata  apiUsageMeta   `json:"usageMetadata"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiCandidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type apiUsageMeta struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(c *chat.Chat) apiRequest {
	req := apiRequest{
		GenerationConfig: generationConfig{
			MaxOutputTokens: a.MaxTokens,
		},
	}

	if a.Temperature != 0 {
		t := a.Temperature
		req.GenerationConfig.Temperature = &t
	}

	if sp := c.SystemPrompt(); sp != "" {
		req.SystemInstruction = &apiContent{Parts: []apiPart{{Text: sp}}}
	}

	for _, m := range c.Turns() {
		appendContent(&req.Contents, m)
	}

	return req
}

func appendContent(contents *[]apiContent, m message.Message) {
	apiRole := mapRole(m.Role)

	for _, p := range m.Parts {
		part := partToAPIPart(p)
		if part == nil {
			continue
		}

		// Merge into the last content if it has the same role (Gemini requires alternation).
		if len(*contents) > 0 && (*contents)[len(*contents)-1].Role == apiRole {
			(*contents)[len(*contents)-1].Parts = append((*contents)[len(*contents)-1].Parts, *part)
			continue
		}

		*contents = append(*contents, apiContent{
			Role:  apiRole,
			Parts: []apiPart{*part},
		})
	}
}

func partToAPIPart(p content.Part) *apiPart {
	switch v := p.(type) {
	case content.Text:
		if v.Text == "" {
			return nil
		}
		return &apiPart{Text: v.Text}
	case content.Image:
		if len(v.Data) == 0 {
			return &apiPart{FileData: &apiFileData{MimeType: v.MediaType, FileURI: v.URL}}
		}
		return &apiPart{InlineData: &apiInlineData{MimeType: v.MediaType, Data: v.Base64()}}
	default:
		return nil
	}
}

func mapRole(r role.Role) string {
	if r == role.Assistant {
		return "model"
	}
	return "user"
}
