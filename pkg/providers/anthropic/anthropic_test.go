package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/nbask/pkg/chats/chat"
	"github.com/germanamz/nbask/pkg/chats/content"
	"github.com/germanamz/nbask/pkg/chats/message"
	"github.com/germanamz/nbask/pkg/chats/role"
	"github.com/germanamz/nbask/pkg/modeladapter"
	"github.com/germanamz/nbask/pkg/providers/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *anthropic.Adapter) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := anthropic.New(srv.URL, "test-key", "claude-test")

	return srv, a
}

// writeSSE writes each event as a named Server-Sent Event.
func writeSSE(t *testing.T, w http.ResponseWriter, events ...map[string]any) {
	t.Helper()

	w.Header().Set("Content-Type", "text/event-stream")

	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			t.Errorf("failed to encode event: %v", err)
			return
		}
		_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev["type"], data)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func textDelta(text string) map[string]any {
	return map[string]any{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]any{"type": "text_delta", "text": text},
	}
}

func collect(deltas *[]string) modeladapter.DeltaFunc {
	return func(d string) error {
		*deltas = append(*deltas, d)
		return nil
	}
}

func TestStream_SimpleText(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		req := readBody(t, r)

		assert.Equal(t, "claude-test", req["model"])
		assert.Equal(t, "You are helpful.", req["system"])
		assert.Equal(t, true, req["stream"])

		msgs, ok := req["messages"].([]any)
		assert.True(t, ok)
		assert.Len(t, msgs, 1)

		writeSSE(t, w,
			map[string]any{"type": "message_start", "message": map[string]any{"usage": map[string]any{"input_tokens": 10}}},
			map[string]any{"type": "content_block_start", "index": 0, "content_block": map[string]any{"type": "text", "text": ""}},
			map[string]any{"type": "ping"},
			textDelta("Hello"),
			textDelta(" there!"),
			map[string]any{"type": "content_block_stop", "index": 0},
			map[string]any{"type": "message_delta", "delta": map[string]any{"stop_reason": "end_turn"}, "usage": map[string]any{"output_tokens": 5}},
			map[string]any{"type": "message_stop"},
		)
	})

	c := chat.Seeded("You are helpful.", message.NewText("user", role.User, "Hi"))

	var deltas []string
	msg, err := adapter.Stream(context.Background(), c, collect(&deltas))
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", " there!"}, deltas)
	assert.Equal(t, role.Assistant, msg.Role)
	assert.Equal(t, "Hello there!", msg.TextContent())

	last, ok := adapter.Usage.Last()
	require.True(t, ok)
	assert.Equal(t, 10, last.InputTokens)
	assert.Equal(t, 5, last.OutputTokens)
}

func TestStream_MergesConsecutiveRoles(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)

		first, _ := msgs[0].(map[string]any)
		assert.Equal(t, "user", first["role"])
		blocks, _ := first["content"].([]any)
		assert.Len(t, blocks, 3)

		second, _ := msgs[1].(map[string]any)
		assert.Equal(t, "assistant", second["role"])

		writeSSE(t, w, textDelta("ok"), map[string]any{"type": "message_stop"})
	})

	c := chat.New(
		message.NewText("notebook", role.User, "## Markdown Cell\n"),
		message.NewText("notebook", role.User, "# Title"),
		message.NewText("notebook", role.User, "User Question Cell\nwhy?"),
		message.NewText("notebook", role.Assistant, "because"),
	)

	msg, err := adapter.Stream(context.Background(), c, collect(new([]string)))
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.TextContent())
}

func TestStream_ImageBlock(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		msgs, _ := req["messages"].([]any)
		require.Len(t, msgs, 1)
		first, _ := msgs[0].(map[string]any)
		blocks, _ := first["content"].([]any)
		require.Len(t, blocks, 2)

		img, _ := blocks[1].(map[string]any)
		assert.Equal(t, "image", img["type"])
		source, _ := img["source"].(map[string]any)
		assert.Equal(t, "base64", source["type"])
		assert.Equal(t, "image/png", source["media_type"])
		assert.Equal(t, "AQID", source["data"])

		writeSSE(t, w, textDelta("a chart"), map[string]any{"type": "message_stop"})
	})

	c := chat.New(message.New("notebook", role.User,
		content.Text{Text: "### Code Cell Output\n"},
		content.Image{Data: []byte{1, 2, 3}, MediaType: "image/png"},
	))

	msg, err := adapter.Stream(context.Background(), c, collect(new([]string)))
	require.NoError(t, err)
	assert.Equal(t, "a chart", msg.TextContent())
}

func TestStream_AssistantImageLeftOut(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		msgs, _ := req["messages"].([]any)
		require.Len(t, msgs, 2)

		answer, _ := msgs[1].(map[string]any)
		assert.Equal(t, "assistant", answer["role"])
		blocks, _ := answer["content"].([]any)
		require.Len(t, blocks, 1)
		text, _ := blocks[0].(map[string]any)
		assert.Equal(t, "text", text["type"])
		assert.Equal(t, "### Code Cell Output\n", text["text"])

		writeSSE(t, w, textDelta("ok"), map[string]any{"type": "message_stop"})
	})

	c := chat.New(
		message.NewText("notebook", role.User, "User Question Cell\nplot it?"),
		message.New("notebook", role.Assistant,
			content.Text{Text: "### Code Cell Output\n"},
			content.Image{Data: []byte{1, 2, 3}, MediaType: "image/png"},
		),
	)

	_, err := adapter.Stream(context.Background(), c, collect(new([]string)))
	require.NoError(t, err)
}

func TestStream_ErrorEvent(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeSSE(t, w,
			textDelta("partial"),
			map[string]any{"type": "error", "error": map[string]any{"type": "overloaded_error", "message": "Overloaded"}},
		)
	})

	var deltas []string
	_, err := adapter.Stream(context.Background(), chat.New(message.NewText("user", role.User, "Hi")), collect(&deltas))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: stream error overloaded_error: Overloaded")
	assert.Equal(t, []string{"partial"}, deltas)
}

func TestStream_APIError(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
	})

	_, err := adapter.Stream(context.Background(), chat.New(message.NewText("user", role.User, "Hi")), collect(new([]string)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic:")
	assert.Contains(t, err.Error(), "400")

	var se *modeladapter.StatusError
	assert.ErrorAs(t, err, &se)
}

func TestStream_DeltaCallbackAborts(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeSSE(t, w, textDelta("one"), textDelta("two"), map[string]any{"type": "message_stop"})
	})

	boom := errors.New("display closed")
	_, err := adapter.Stream(context.Background(), chat.New(message.NewText("user", role.User, "Hi")), func(string) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestStream_TemperatureAndMaxTokens(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		assert.InDelta(t, 0.5, req["temperature"], 1e-9)
		assert.InDelta(t, float64(256), req["max_tokens"], 1e-9)
		_, hasSystem := req["system"]
		assert.False(t, hasSystem)

		writeSSE(t, w, map[string]any{"type": "message_stop"})
	})
	adapter.Temperature = 0.5
	adapter.MaxTokens = 256

	msg, err := adapter.Stream(context.Background(), chat.New(message.NewText("user", role.User, "Hi")), collect(new([]string)))
	require.NoError(t, err)
	assert.Empty(t, msg.TextContent())
}
