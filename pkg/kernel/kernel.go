// Package kernel bridges a notebook front end to the engine over a
// JSON-lines protocol on a pair of streams. Requests are handled one at a
// time, in arrival order, for the lifetime of the process; the session state
// they change lives as long as the kernel.
package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/germanamz/nbask/pkg/magic"
	"github.com/germanamz/nbask/pkg/notebook"
	"github.com/germanamz/nbask/pkg/render"
	"github.com/germanamz/nbask/pkg/session"
)

// ErrNotMagic is reported for cells that are not magic commands.
var ErrNotMagic = errors.New("kernel: not a magic command")

// Kernel serves requests for one session.
type Kernel struct {
	asker    magic.Asker
	registry *magic.Registry
	session  *session.Session
	renderer render.Renderer
	log      *slog.Logger
	onStart  func(out io.Writer)

	mu  sync.Mutex
	enc *json.Encoder
}

// New creates a kernel. A nil logger discards log output.
func New(asker magic.Asker, registry *magic.Registry, sess *session.Session, r render.Renderer, log *slog.Logger) *Kernel {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Kernel{
		asker:    asker,
		registry: registry,
		session:  sess,
		renderer: r,
		log:      log,
	}
}

// OnStart registers fn to run once Serve is writing responses. Whatever fn
// writes to out is sent as stdout stream responses without a request id.
func (k *Kernel) OnStart(fn func(out io.Writer)) {
	k.onStart = fn
}

// Serve reads requests from r and writes responses to w until r is
// exhausted, a shutdown request arrives, or ctx is done.
func (k *Kernel) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	k.mu.Lock()
	k.enc = json.NewEncoder(w)
	k.enc.SetEscapeHTML(false)
	k.mu.Unlock()

	if k.onStart != nil {
		k.onStart(&streamWriter{k: k})
	}

	dec := json.NewDecoder(r)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("kernel: decode request: %w", err)
		}

		switch req.Type {
		case TypeShutdown:
			k.log.InfoContext(ctx, "shutdown requested", "id", req.ID)
			return k.reply(req.ID, nil)
		case TypeExecute:
			err := k.execute(ctx, req)
			if err != nil {
				k.log.ErrorContext(ctx, "execute failed", "id", req.ID, "cell_id", req.CellID, "error", err)
			}
			if sendErr := k.reply(req.ID, err); sendErr != nil {
				return sendErr
			}
		default:
			if err := k.reply(req.ID, fmt.Errorf("kernel: unknown request type %q", req.Type)); err != nil {
				return err
			}
		}
	}
}

func (k *Kernel) execute(ctx context.Context, req Request) error {
	inv, ok := magic.Parse(req.Code)
	if !ok {
		return ErrNotMagic
	}

	k.log.DebugContext(ctx, "execute", "id", req.ID, "cell_id", req.CellID, "magic", inv.String())

	env := magic.Env{
		CellID:   req.CellID,
		Session:  k.session,
		Asker:    k.asker,
		Renderer: k.renderer,
		Displays: k.displayFactory(req.ID),
		Out:      &streamWriter{k: k, id: req.ID},
	}

	if len(req.Notebook) > 0 {
		nb, err := notebook.Parse(req.Notebook)
		if err != nil {
			return err
		}
		env.Notebook = &nb
	}

	return k.registry.Dispatch(ctx, inv, env)
}

func (k *Kernel) send(resp Response) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.enc.Encode(resp); err != nil {
		return fmt.Errorf("kernel: write response: %w", err)
	}
	return nil
}

func (k *Kernel) reply(id string, err error) error {
	resp := Response{ID: id, Type: TypeExecuteReply, Status: StatusOK}
	if err != nil {
		resp.Status = StatusError
		resp.Error = err.Error()
	}
	return k.send(resp)
}

// displayFactory opens an empty updatable display, then shows header in a
// display of its own.
func (k *Kernel) displayFactory(reqID string) render.DisplayFactory {
	return func(header string) (render.Display, error) {
		d := &display{k: k, reqID: reqID, id: render.NewDisplayID()}
		if err := k.send(Response{ID: reqID, Type: TypeDisplay, DisplayID: d.id}); err != nil {
			return nil, err
		}

		if header != "" {
			if err := k.send(Response{ID: reqID, Type: TypeDisplay, DisplayID: render.NewDisplayID(), HTML: header}); err != nil {
				return nil, err
			}
		}

		return d, nil
	}
}

type display struct {
	k     *Kernel
	reqID string
	id    string
}

func (d *display) ID() string { return d.id }

func (d *display) Update(body string) error {
	return d.k.send(Response{ID: d.reqID, Type: TypeDisplay, DisplayID: d.id, HTML: body, Update: true})
}

// streamWriter forwards writes as stdout stream responses.
type streamWriter struct {
	k  *Kernel
	id string
}

func (w *streamWriter) Write(p []byte) (int, error) {
	if err := w.k.send(Response{ID: w.id, Type: TypeStream, Name: "stdout", Text: string(p)}); err != nil {
		return 0, err
	}
	return len(p), nil
}
