package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/germanamz/nbask/pkg/chats/chat"
	"github.com/germanamz/nbask/pkg/chats/message"
	"github.com/germanamz/nbask/pkg/chats/role"
	"github.com/germanamz/nbask/pkg/modeladapter"
	"github.com/germanamz/nbask/pkg/modeladapter/usage"
	"github.com/germanamz/nbask/pkg/notebook"
	"github.com/germanamz/nbask/pkg/notebookctx"
	"github.com/germanamz/nbask/pkg/render"
	"github.com/germanamz/nbask/pkg/secrets"
	"github.com/germanamz/nbask/pkg/session"
)

// RequestPrefix introduces the current cell's query after the replayed history.
const RequestPrefix = "USER REQUEST (Current Cell):  "

// UserSender is the sender name of the query message.
const UserSender = "user"

// Engine assembles notebook context, routes the session's model to a
// provider, and streams answers into displays.
type Engine struct {
	cfg       Config
	assembler *notebookctx.Assembler
	events    *EventBus
	log       *slog.Logger
	getenv    func(string) string
	setenv    func(string, string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithEnv replaces the process environment accessors used for API keys and
// credential export.
func WithEnv(getenv func(string) string, setenv func(string, string) error) Option {
	return func(e *Engine) {
		e.getenv = getenv
		e.setenv = setenv
	}
}

// New creates an Engine from the given configuration.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		events: NewEventBus(),
		log:    slog.New(slog.DiscardHandler),
		getenv: os.Getenv,
		setenv: os.Setenv,
	}
	for _, o := range opts {
		o(e)
	}

	e.assembler = notebookctx.NewAssembler(notebookctx.Options{
		StrictCellID:          cfg.Context.StrictCellID,
		IncludeExecuteResults: cfg.Context.IncludeExecuteResults,
	}, e.log)

	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// NewSession creates a session seeded from the environment lookup, falling
// back to the configured defaults.
func (e *Engine) NewSession(lookup session.LookupFunc) *session.Session {
	return session.New(session.Defaults{
		Model:        e.cfg.Defaults.Model,
		SystemPrompt: e.cfg.Defaults.SystemPrompt,
	}, lookup)
}

// HTMLRenderer returns an HTML renderer using the configured highlight mode.
func (e *Engine) HTMLRenderer() *render.HTML {
	h, _ := render.ParseHighlight(e.cfg.Render.Highlight) // validated in New
	return render.NewHTML(h)
}

// BuildContext assembles the chat history replayed for an ask in cellID.
func (e *Engine) BuildContext(nb notebook.Notebook, cellID string) (notebookctx.Context, error) {
	nctx, err := e.assembler.Build(nb, cellID)
	if err != nil {
		return notebookctx.Context{}, fmt.Errorf("engine: build context: %w", err)
	}
	return nctx, nil
}

// Init exports provider credentials found in store into the environment and
// prints one confirmation line per exported key to out. Missing credentials
// are skipped silently.
func (e *Engine) Init(store secrets.Store, out io.Writer) []string {
	loaded := secrets.Populate(store, secrets.ProviderKeys, e.setenv, e.log)

	for _, key := range loaded {
		_, _ = fmt.Fprintf(out, "Set Env Key For: %s\n", key)
		e.events.Publish(Event{
			Kind:      EventSecretLoaded,
			Timestamp: time.Now(),
			Data:      key,
		})
	}

	return loaded
}

// AskRequest is one ask invocation.
type AskRequest struct {
	Notebook notebook.Notebook
	CellID   string
	Query    string
}

// Answer is the outcome of a completed ask.
type Answer struct {
	Text          string
	Message       message.Message
	Model         string
	Provider      string
	DisplayID     string
	Usage         usage.TokenCount
	BoundaryFound bool
}

// Ask answers req with the session's model and system prompt. The history
// of the cells above req.CellID is replayed, followed by the query. A
// display is opened through open before the first delta, and every delta
// re-renders the whole answer into it. Errors are returned, never retried.
func (e *Engine) Ask(ctx context.Context, req AskRequest, sess *session.Session, r render.Renderer, open render.DisplayFactory) (Answer, error) {
	model := sess.Model()

	nctx, err := e.BuildContext(req.Notebook, req.CellID)
	if err != nil {
		return Answer{}, err
	}

	route, err := e.cfg.ResolveModel(model)
	if err != nil {
		return Answer{}, err
	}

	streamer, err := buildStreamer(route, e.getenv)
	if err != nil {
		return Answer{}, err
	}

	c := chat.Seeded(sess.SystemPrompt(), nctx.Messages...)
	c.Append(message.NewText(UserSender, role.User, RequestPrefix+req.Query+"\n"))

	display, err := open(r.Header())
	if err != nil {
		return Answer{}, fmt.Errorf("engine: open display: %w", err)
	}

	e.log.InfoContext(ctx, "ask", "cell_id", req.CellID, "model", route.Model, "provider", route.Provider.Name, "messages", c.Len())
	if n := assistantImages(nctx.Messages); n > 0 && userImagesOnly(route.Provider.Kind) {
		e.log.DebugContext(ctx, "images in replayed answers left out", "cell_id", req.CellID, "provider", route.Provider.Name, "images", n)
	}
	e.events.Publish(Event{
		Kind:      EventAskStart,
		CellID:    req.CellID,
		Model:     model,
		Timestamp: time.Now(),
		Data: AskStart{
			Provider:      route.Provider.Name,
			Messages:      c.Len(),
			BoundaryFound: nctx.BoundaryFound,
		},
	})

	rs := NewResponseStreamer(r, display, func(delta string) {
		e.events.Publish(Event{
			Kind:      EventDelta,
			CellID:    req.CellID,
			Model:     model,
			Timestamp: time.Now(),
			Data:      delta,
		})
	})

	run := modeladapter.Chain(streamer,
		modeladapter.Recovery(),
		modeladapter.Logger(e.log, route.Provider.Name+"/"+route.Model),
	)

	msg, err := rs.Run(ctx, run, c)
	if err != nil {
		err = fmt.Errorf("engine: ask %s: %w", model, err)
		e.log.ErrorContext(ctx, "ask failed", "cell_id", req.CellID, "model", model, "error", err)
		e.events.Publish(Event{
			Kind:      EventError,
			CellID:    req.CellID,
			Model:     model,
			Timestamp: time.Now(),
			Data:      err,
		})
		return Answer{}, err
	}

	ans := Answer{
		Text:          rs.Text(),
		Message:       msg,
		Model:         model,
		Provider:      route.Provider.Name,
		DisplayID:     display.ID(),
		BoundaryFound: nctx.BoundaryFound,
	}
	if ur, ok := streamer.(modeladapter.UsageReporter); ok {
		ans.Usage, _ = ur.UsageTracker().Last()
	}

	sess.Usage().Record(model, ans.Usage)
	total := sess.Usage().Total()

	e.log.InfoContext(ctx, "ask done", "cell_id", req.CellID, "model", model,
		"input_tokens", ans.Usage.InputTokens, "output_tokens", ans.Usage.OutputTokens, "updates", rs.Updates(),
		"session_input_tokens", total.InputTokens, "session_output_tokens", total.OutputTokens)
	e.events.Publish(Event{
		Kind:      EventAskEnd,
		CellID:    req.CellID,
		Model:     model,
		Timestamp: time.Now(),
		Data:      ans,
	})

	return ans, nil
}

// userImagesOnly reports whether the provider kind drops image parts outside
// user turns.
func userImagesOnly(kind string) bool {
	switch kind {
	case KindAnthropic, KindOpenAI, KindGrok:
		return true
	default:
		return false
	}
}

// assistantImages counts the image parts on assistant messages.
func assistantImages(msgs []message.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role == role.Assistant {
			n += len(m.Images())
		}
	}
	return n
}
