package notebookctx

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/germanamz/nbask/pkg/chats/content"
	"github.com/germanamz/nbask/pkg/chats/message"
	"github.com/germanamz/nbask/pkg/chats/role"
	"github.com/germanamz/nbask/pkg/notebook"
)

// Sender is the sender name stamped on every replayed message.
const Sender = "notebook"

// ErrCellNotFound is returned by Build in strict mode when the invoking cell
// id does not occur in the notebook.
var ErrCellNotFound = errors.New("notebookctx: invoking cell not found")

// Options control history assembly.
type Options struct {
	// StrictCellID makes Build fail when the invoking cell is missing instead
	// of replaying the whole notebook.
	StrictCellID bool
	// IncludeExecuteResults replays execute_result outputs.
	IncludeExecuteResults bool
}

// Context is the assembled history for one invocation.
type Context struct {
	Messages      []message.Message
	Cells         int  // number of cells replayed
	BoundaryFound bool // whether the invoking cell was located
}

// Assembler builds chat histories from notebooks.
type Assembler struct {
	opts      Options
	extractor Extractor
	log       *slog.Logger
}

// NewAssembler creates an Assembler. A nil logger discards log output.
func NewAssembler(opts Options, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Assembler{
		opts:      opts,
		extractor: Extractor{IncludeExecuteResults: opts.IncludeExecuteResults},
		log:       log,
	}
}

// Build selects the cells above cellID and assembles their history.
func (a *Assembler) Build(nb notebook.Notebook, cellID string) (Context, error) {
	cells, found := nb.Before(cellID)
	if !found {
		if a.opts.StrictCellID {
			return Context{}, fmt.Errorf("%w: %q", ErrCellNotFound, cellID)
		}
		a.log.Warn("invoking cell not found, replaying whole notebook", "cell_id", cellID, "cells", len(cells))
	}

	msgs, err := a.History(cells)
	if err != nil {
		return Context{}, err
	}

	a.log.Debug("assembled notebook context", "cell_id", cellID, "cells", len(cells), "messages", len(msgs))

	return Context{Messages: msgs, Cells: len(cells), BoundaryFound: found}, nil
}

// History converts cells into messages in notebook order. Markdown cells
// become one user message. Code cells become a user message for the source
// and one for the outputs; for question cells the outputs are the model's
// earlier answer and are replayed with the assistant role. Cells that format
// to no parts produce no message.
func (a *Assembler) History(cells []notebook.Cell) ([]message.Message, error) {
	var msgs []message.Message

	emit := func(c notebook.Cell, r role.Role, frags []Fragment) error {
		parts, err := Format(frags)
		if err != nil {
			return err
		}
		if len(parts) == 0 {
			return nil
		}
		msgs = append(msgs, newMessage(c, r, parts))
		return nil
	}

	for _, c := range cells {
		switch c.CellType {
		case notebook.Markdown:
			frags, err := a.extractor.Markdown(c)
			if err != nil {
				return nil, err
			}
			if err := emit(c, role.User, frags); err != nil {
				return nil, err
			}

		case notebook.Code:
			kind := KindOf(c)
			replyRole := role.User
			if kind == KindQuestion {
				replyRole = role.Assistant
			}

			if err := emit(c, role.User, a.extractor.Code(c, kind)); err != nil {
				return nil, err
			}

			frags, err := a.extractor.Outputs(c, kind)
			if err != nil {
				return nil, err
			}
			if err := emit(c, replyRole, frags); err != nil {
				return nil, err
			}

		default:
			a.log.Debug("skipping cell", "cell_id", c.CellID(), "cell_type", c.CellType)
		}
	}

	return msgs, nil
}

func newMessage(c notebook.Cell, r role.Role, parts []content.Part) message.Message {
	m := message.New(Sender, r, parts...)
	m.SetMeta("cell_id", c.CellID())
	return m
}
