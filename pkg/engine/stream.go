package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/germanamz/nbask/pkg/chats/chat"
	"github.com/germanamz/nbask/pkg/chats/message"
	"github.com/germanamz/nbask/pkg/modeladapter"
	"github.com/germanamz/nbask/pkg/render"
)

// StreamState is the lifecycle state of a ResponseStreamer.
type StreamState int

const (
	StateIdle StreamState = iota
	StateStreaming
	StateDone
	StateFailed
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("StreamState(%d)", int(s))
	}
}

// ResponseStreamer drives one streamed answer into a display. Every non-empty
// delta is appended to the accumulated text, and the whole accumulated text
// is re-rendered and replaces the display content. A ResponseStreamer is
// single-use.
type ResponseStreamer struct {
	renderer render.Renderer
	display  render.Display
	onDelta  func(string)

	mu      sync.Mutex
	state   StreamState
	text    strings.Builder
	updates int
}

// NewResponseStreamer creates an idle streamer. onDelta, when non-nil,
// observes each accepted delta after the display was updated.
func NewResponseStreamer(r render.Renderer, d render.Display, onDelta func(string)) *ResponseStreamer {
	return &ResponseStreamer{renderer: r, display: d, onDelta: onDelta}
}

// Run streams c through s. The display is updated once per non-empty delta.
// Provider, render, and display errors move the streamer to StateFailed and
// are returned; the text accumulated so far stays available.
func (rs *ResponseStreamer) Run(ctx context.Context, s modeladapter.Streamer, c *chat.Chat) (message.Message, error) {
	rs.mu.Lock()
	if rs.state != StateIdle {
		st := rs.state
		rs.mu.Unlock()
		return message.Message{}, fmt.Errorf("engine: response streamer already %s", st)
	}
	rs.state = StateStreaming
	rs.mu.Unlock()

	msg, err := s.Stream(ctx, c, rs.handleDelta)

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err != nil {
		rs.state = StateFailed
		return message.Message{}, err
	}

	rs.state = StateDone

	return msg, nil
}

func (rs *ResponseStreamer) handleDelta(delta string) error {
	if delta == "" {
		return nil
	}

	rs.mu.Lock()
	rs.text.WriteString(delta)
	accumulated := rs.text.String()
	rs.mu.Unlock()

	out, err := rs.renderer.Render(accumulated)
	if err != nil {
		return err
	}

	if err := rs.display.Update(out); err != nil {
		return fmt.Errorf("update display: %w", err)
	}

	rs.mu.Lock()
	rs.updates++
	rs.mu.Unlock()

	if rs.onDelta != nil {
		rs.onDelta(delta)
	}

	return nil
}

// State returns the current lifecycle state.
func (rs *ResponseStreamer) State() StreamState {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return rs.state
}

// Text returns the text accumulated so far.
func (rs *ResponseStreamer) Text() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return rs.text.String()
}

// Updates returns how many times the display was updated.
func (rs *ResponseStreamer) Updates() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return rs.updates
}
