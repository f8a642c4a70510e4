// Package magic parses notebook magic commands and dispatches them to
// handlers: %%ask, %set_model, %%set_sys and %usage.
package magic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/germanamz/nbask/pkg/engine"
	"github.com/germanamz/nbask/pkg/notebook"
	"github.com/germanamz/nbask/pkg/render"
	"github.com/germanamz/nbask/pkg/session"
)

// ErrUnknownMagic is returned when no handler is registered for an invocation.
var ErrUnknownMagic = errors.New("magic: unknown magic")

// Kind distinguishes line magics (%name) from cell magics (%%name).
type Kind int

const (
	Line Kind = iota
	Cell
)

func (k Kind) String() string {
	if k == Cell {
		return "cell"
	}
	return "line"
}

func (k Kind) prefix() string {
	if k == Cell {
		return "%%"
	}
	return "%"
}

// Invocation is a parsed magic command.
type Invocation struct {
	Kind Kind
	Name string
	Line string // text after the name on the first line
	Body string // remaining lines (cell magics)
}

func (inv Invocation) String() string {
	return inv.Kind.prefix() + inv.Name
}

// Parse recognizes a magic command at the start of cellText. Leading blank
// lines are skipped. It reports false when the text is not a magic.
func Parse(cellText string) (Invocation, bool) {
	text := strings.TrimLeft(cellText, "\r\n")

	first, body, _ := strings.Cut(text, "\n")
	first = strings.TrimRight(first, "\r")

	kind := Line
	switch {
	case strings.HasPrefix(first, "%%"):
		kind = Cell
		first = first[2:]
	case strings.HasPrefix(first, "%"):
		first = first[1:]
	default:
		return Invocation{}, false
	}

	name, line := first, ""
	if i := strings.IndexFunc(first, unicode.IsSpace); i >= 0 {
		name, line = first[:i], first[i:]
	}
	if name == "" || strings.Contains(name, "%") {
		return Invocation{}, false
	}

	inv := Invocation{Kind: kind, Name: name, Line: strings.TrimSpace(line)}
	if kind == Cell {
		inv.Body = body
	}

	return inv, true
}

// Asker answers questions about a notebook.
type Asker interface {
	Ask(ctx context.Context, req engine.AskRequest, sess *session.Session, r render.Renderer, open render.DisplayFactory) (engine.Answer, error)
}

// Env is what a handler may act on.
type Env struct {
	Notebook *notebook.Notebook
	CellID   string
	Session  *session.Session
	Asker    Asker
	Renderer render.Renderer
	Displays render.DisplayFactory
	Out      io.Writer
}

// Handler runs one magic invocation.
type Handler func(ctx context.Context, inv Invocation, env Env) error

type key struct {
	kind Kind
	name string
}

// Registry maps magic names to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[key]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[key]Handler)}
}

// Builtin returns a registry with the ask, set_model, set_sys and usage magics.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(Cell, "ask", Ask)
	r.Register(Line, "set_model", SetModel)
	r.Register(Cell, "set_sys", SetSys)
	r.Register(Line, "usage", Usage)
	return r
}

// Register adds or replaces the handler for a magic.
func (r *Registry) Register(kind Kind, name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[key{kind, name}] = h
}

// Names lists the registered magics with their prefixes, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		names = append(names, k.kind.prefix()+k.name)
	}
	sort.Strings(names)

	return names
}

// Dispatch runs the handler registered for inv.
func (r *Registry) Dispatch(ctx context.Context, inv Invocation, env Env) error {
	r.mu.RLock()
	h, ok := r.handlers[key{inv.Kind, inv.Name}]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMagic, inv)
	}

	return h(ctx, inv, env)
}

// Ask streams an answer to the cell body using the notebook above the cell.
func Ask(ctx context.Context, inv Invocation, env Env) error {
	if env.Notebook == nil {
		return errors.New("magic: ask: notebook is unavailable")
	}

	_, err := env.Asker.Ask(ctx, engine.AskRequest{
		Notebook: *env.Notebook,
		CellID:   env.CellID,
		Query:    inv.Body,
	}, env.Session, env.Renderer, env.Displays)

	return err
}

// SetModel replaces the session model with the magic's argument.
func SetModel(_ context.Context, inv Invocation, env Env) error {
	if err := env.Session.SetModel(inv.Line); err != nil {
		return err
	}

	_, err := fmt.Fprintf(env.Out, "Model set to: %s\n", env.Session.Model())

	return err
}

// SetSys replaces the session system prompt with the cell body.
func SetSys(_ context.Context, inv Invocation, env Env) error {
	if err := env.Session.SetSystemPrompt(inv.Body); err != nil {
		return err
	}

	_, err := fmt.Fprintln(env.Out, "System prompt updated")

	return err
}

// Usage prints the tokens spent by the session's asks, one line per model
// followed by the total.
func Usage(_ context.Context, _ Invocation, env Env) error {
	ledger := env.Session.Usage()
	if ledger.Asks() == 0 {
		_, err := fmt.Fprintln(env.Out, "No asks yet")
		return err
	}

	var sb strings.Builder
	for _, m := range ledger.Models() {
		tc := ledger.Model(m)
		fmt.Fprintf(&sb, "%s: %d in, %d out\n", m, tc.InputTokens, tc.OutputTokens)
	}

	asks := "asks"
	if ledger.Asks() == 1 {
		asks = "ask"
	}

	total := ledger.Total()
	fmt.Fprintf(&sb, "Total over %d %s: %d in, %d out\n", ledger.Asks(), asks, total.InputTokens, total.OutputTokens)

	_, err := io.WriteString(env.Out, sb.String())

	return err
}
