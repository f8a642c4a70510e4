package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/germanamz/nbask/pkg/askdir"
	"github.com/germanamz/nbask/pkg/engine"
	"github.com/germanamz/nbask/pkg/notebook"
	"github.com/germanamz/nbask/pkg/render"
	"github.com/germanamz/nbask/pkg/session"
)

type askFlags struct {
	common    commonFlags
	model     string
	pickModel bool
	html      bool
	out       string
	plain     bool
}

func runAsk(ctx context.Context, args []string) error {
	var f askFlags

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nbask ask [flags] NOTEBOOK CELL_ID [QUERY...]\n\n"+
			"Answer QUERY (read from stdin when omitted) using the cells above CELL_ID.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	f.common.register(fs)
	fs.StringVar(&f.model, "model", "", "model for this ask (default: $ASK_MODEL or config)")
	fs.BoolVar(&f.pickModel, "pick-model", false, "choose the model interactively")
	fs.BoolVar(&f.html, "html", false, "write the answer to a self-refreshing HTML page")
	fs.StringVar(&f.out, "out", "", "HTML page path (default: <dir>/local/answers/<cell>.html)")
	fs.BoolVar(&f.plain, "plain", false, "stream raw Markdown to stdout instead of the terminal view")
	_ = fs.Parse(args)

	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("ask: NOTEBOOK and CELL_ID are required")
	}

	query, err := readQuery(fs.Args()[2:], os.Stdin)
	if err != nil {
		return err
	}

	eng, d, log, err := setup(f.common)
	if err != nil {
		return err
	}

	nb, err := notebook.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	store, err := secretStore(eng.Config(), d)
	if err != nil {
		return err
	}
	eng.Init(store, os.Stderr)

	sess, err := askSession(eng, f)
	if err != nil {
		return err
	}

	req := engine.AskRequest{Notebook: nb, CellID: fs.Arg(1), Query: query}

	switch {
	case f.html:
		return askHTML(ctx, eng, sess, req, htmlPath(f.out, d, req.CellID), log)
	case f.plain:
		return askPlain(ctx, eng, sess, req, os.Stdout)
	default:
		return askTUI(ctx, eng, sess, req)
	}
}

// readQuery joins args, or reads r when there are none.
func readQuery(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("ask: read query: %w", err)
	}

	q := strings.TrimSpace(string(data))
	if q == "" {
		return "", errors.New("ask: empty query")
	}

	return q, nil
}

func askSession(eng *engine.Engine, f askFlags) (*session.Session, error) {
	sess := eng.NewSession(os.LookupEnv)

	if f.model != "" {
		if err := sess.SetModel(f.model); err != nil {
			return nil, err
		}
	}

	if f.pickModel {
		m, err := pickModel(sess.Model(), eng.Config())
		if err != nil {
			return nil, err
		}
		if err := sess.SetModel(m); err != nil {
			return nil, err
		}
	}

	return sess, nil
}

func htmlPath(explicit string, d askdir.Dir, cellID string) string {
	if explicit != "" {
		return explicit
	}
	return d.AnswerPath(cellID)
}

func askHTML(ctx context.Context, eng *engine.Engine, sess *session.Session, req engine.AskRequest, path string, log *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ask: create answer dir: %w", err)
	}

	var page *render.HTMLFile
	newPage := render.HTMLFileFactory(path, "nbask: "+req.CellID)
	open := func(header string) (render.Display, error) {
		d, err := newPage(header)
		if err != nil {
			return nil, err
		}
		page, _ = d.(*render.HTMLFile)
		log.Info("answer page", "path", path, "display_id", d.ID())
		return d, nil
	}

	_, askErr := eng.Ask(ctx, req, sess, eng.HTMLRenderer(), open)

	if page != nil {
		if err := page.Close(); err != nil && askErr == nil {
			askErr = err
		}
		fmt.Println(page.Path())
	}

	return askErr
}

func askPlain(ctx context.Context, eng *engine.Engine, sess *session.Session, req engine.AskRequest, w io.Writer) error {
	open := func(string) (render.Display, error) {
		return newPlainDisplay(w), nil
	}

	if _, err := eng.Ask(ctx, req, sess, render.Markdown{}, open); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w)
	return err
}

func askTUI(ctx context.Context, eng *engine.Engine, sess *session.Session, req engine.AskRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Query the background before the program owns the terminal input.
	darkBG := lipgloss.HasDarkBackground()

	model := newStreamModel("nbask "+req.CellID, req.Query, darkBG, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())

	stopBridge := startBridge(ctx, p.Send, eng.Events())
	defer stopBridge()

	open := func(string) (render.Display, error) {
		return newTUIDisplay(p.Send), nil
	}

	go func() {
		ans, err := eng.Ask(ctx, req, sess, render.Markdown{}, open)
		p.Send(askDoneMsg{answer: ans, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}

	m, ok := final.(streamModel)
	if !ok {
		return nil
	}

	if m.body != "" {
		out := m.body
		if t, err := render.NewTerminal(terminalWidth(os.Stdout, 100), darkBG); err == nil {
			if r, err := t.Render(m.body); err == nil {
				out = r
			}
		}
		fmt.Println(out)
	}

	return m.err
}
