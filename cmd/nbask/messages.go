package main

import (
	"time"

	"github.com/germanamz/nbask/pkg/engine"
)

// bodyMsg carries the whole answer accumulated so far.
type bodyMsg struct {
	body string
}

// askStartMsg is sent when the engine starts streaming.
type askStartMsg struct {
	model    string
	provider string
	messages int
	boundary bool
}

// askDoneMsg is sent when the ask returns.
type askDoneMsg struct {
	answer engine.Answer
	err    error
}

// tickMsg drives the spinner.
type tickMsg time.Time
