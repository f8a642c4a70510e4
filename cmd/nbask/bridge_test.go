package main

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/nbask/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartBridge_ForwardsAskStart(t *testing.T) {
	bus := engine.NewEventBus()
	msgs := make(chan tea.Msg, 4)

	stop := startBridge(context.Background(), func(m tea.Msg) { msgs <- m }, bus)
	defer stop()

	bus.Publish(engine.Event{Kind: engine.EventDelta, Data: "ignored"})
	bus.Publish(engine.Event{
		Kind:  engine.EventAskStart,
		Model: "gpt-4o",
		Data:  engine.AskStart{Provider: "openai", Messages: 3, BoundaryFound: true},
	})

	select {
	case m := <-msgs:
		assert.Equal(t, askStartMsg{model: "gpt-4o", provider: "openai", messages: 3, boundary: true}, m)
	case <-time.After(time.Second):
		require.Fail(t, "no message forwarded")
	}
}

func TestStartBridge_StopWaits(t *testing.T) {
	bus := engine.NewEventBus()
	sent := 0

	stop := startBridge(context.Background(), func(tea.Msg) { sent++ }, bus)
	stop()

	bus.Publish(engine.Event{Kind: engine.EventAskStart, Model: "m"})
	assert.Zero(t, sent)
}
