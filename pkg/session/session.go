// Package session holds the per-kernel-session model and system prompt used
// for every ask, and the token usage those asks spent.
package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/germanamz/nbask/pkg/modeladapter/usage"
)

// DefaultModel is the model used when neither configuration nor the
// environment names one.
const DefaultModel = "claude-sonnet-4-5-20250929"

// DefaultSystemPrompt is the tutoring persona sent with every request unless
// replaced.
const DefaultSystemPrompt = "You are an AI assistant inside a Google Colab notebook.\n" +
	"In your response, craft guidance on the next step, whether code related, or more strategy related \n" +
	"Dont spew out all the steps at once, the user wants to go slow, they will ask for more if they need it \n" +
	"The user is interested in improving there coding, and may chose to make code blocks in repsonse to your input \n"

// Environment variables that seed a new session.
const (
	EnvModel        = "ASK_MODEL"
	EnvSystemPrompt = "ASK_SYSTEM_PROMPT"
)

var (
	// ErrEmptyModel is returned when a blank model identifier is set.
	ErrEmptyModel = errors.New("session: model must not be empty")
	// ErrEmptyPrompt is returned when a blank system prompt is set.
	ErrEmptyPrompt = errors.New("session: system prompt must not be empty")
)

// Defaults are the values a session falls back to when the environment does
// not provide them. Zero fields fall back to DefaultModel and DefaultSystemPrompt.
type Defaults struct {
	Model        string
	SystemPrompt string
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Session is the active model and system prompt. It is safe for concurrent use.
type Session struct {
	mu           sync.RWMutex
	model        string
	systemPrompt string

	usage usage.Ledger
}

// New creates a session. ASK_MODEL and ASK_SYSTEM_PROMPT take precedence when
// present in the environment; otherwise defaults apply. A nil lookup ignores
// the environment.
func New(defaults Defaults, lookup LookupFunc) *Session {
	s := &Session{
		model:        defaults.Model,
		systemPrompt: defaults.SystemPrompt,
	}

	if s.model == "" {
		s.model = DefaultModel
	}
	if s.systemPrompt == "" {
		s.systemPrompt = DefaultSystemPrompt
	}

	if lookup == nil {
		return s
	}

	if v, ok := lookup(EnvModel); ok && strings.TrimSpace(v) != "" {
		s.model = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvSystemPrompt); ok && strings.TrimSpace(v) != "" {
		s.systemPrompt = v
	}

	return s
}

// Model returns the active model identifier.
func (s *Session) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.model
}

// SystemPrompt returns the active system prompt.
func (s *Session) SystemPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.systemPrompt
}

// SetModel replaces the active model with the trimmed line.
func (s *Session) SetModel(line string) error {
	m := strings.TrimSpace(line)
	if m == "" {
		return ErrEmptyModel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = m

	return nil
}

// SetSystemPrompt replaces the active system prompt with the trimmed body.
func (s *Session) SetSystemPrompt(body string) error {
	p := strings.TrimSpace(body)
	if p == "" {
		return ErrEmptyPrompt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.systemPrompt = p

	return nil
}

// Usage returns the tokens spent by the session's asks, per model.
func (s *Session) Usage() *usage.Ledger {
	return &s.usage
}
