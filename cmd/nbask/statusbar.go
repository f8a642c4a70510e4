package main

import (
	"fmt"
	"time"

	usagepkg "github.com/germanamz/nbask/pkg/modeladapter/usage"
)

// statusBarModel shows routing, token usage and timing information.
type statusBarModel struct {
	model    string
	provider string
	messages int
	boundary bool
	started  time.Time
	duration time.Duration
	usage    usagepkg.TokenCount
	done     bool
}

func (m *statusBarModel) start(msg askStartMsg, now time.Time) {
	m.model = msg.model
	m.provider = msg.provider
	m.messages = msg.messages
	m.boundary = msg.boundary
	m.started = now
}

func (m *statusBarModel) finish(tc usagepkg.TokenCount, now time.Time) {
	m.done = true
	m.usage = tc
	if !m.started.IsZero() {
		m.duration = now.Sub(m.started)
	}
}

// View renders the bar. frame selects the spinner glyph while streaming.
func (m statusBarModel) View(frame int, now time.Time) string {
	if m.model == "" {
		return spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]) + statusStyle.Render(" assembling context...")
	}

	route := m.model
	if m.provider != "" {
		route += " via " + m.provider
	}

	scope := fmt.Sprintf("%d messages", m.messages)
	if !m.boundary {
		scope += " (whole notebook)"
	}

	if !m.done {
		return spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]) +
			statusStyle.Render(fmt.Sprintf(" %s · %s · %s", route, scope, fmtDuration(now.Sub(m.started))))
	}

	line := fmt.Sprintf(" %s · %s", route, scope)
	if m.usage.InputTokens+m.usage.OutputTokens > 0 {
		line += fmt.Sprintf(" · ↑%s ↓%s", fmtTokens(m.usage.InputTokens), fmtTokens(m.usage.OutputTokens))
	}
	line += " · " + fmtDuration(m.duration)

	return statusStyle.Render(line)
}
