package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/nbask/pkg/render"
	"github.com/mattn/go-runewidth"
)

const tickInterval = 100 * time.Millisecond

type keyMap struct {
	Quit key.Binding
}

var defaultKeys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc", "q"),
		key.WithHelp("q", "quit"),
	),
}

// streamModel shows an answer while it streams. Bodies arrive as raw
// Markdown and are rendered with glamour at the current window width.
type streamModel struct {
	title    string
	query    string
	keys     keyMap
	viewport viewport.Model
	term     *render.Terminal
	darkBG   bool
	width    int
	body     string
	status   statusBarModel
	frame    int
	done     bool
	err      error
	cancel   context.CancelFunc
	now      func() time.Time
}

func newStreamModel(title, query string, darkBG bool, cancel context.CancelFunc) streamModel {
	return streamModel{
		title:    title,
		query:    query,
		keys:     defaultKeys,
		viewport: viewport.New(0, 0),
		darkBG:   darkBG,
		cancel:   cancel,
		now:      time.Now,
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m streamModel) Init() tea.Cmd {
	return tick()
}

func (m streamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case bodyMsg:
		m.body = msg.body
		m.refresh()
		return m, nil

	case askStartMsg:
		m.status.start(msg, m.now())
		return m, nil

	case askDoneMsg:
		m.done = true
		m.err = msg.err
		m.status.finish(msg.answer.Usage, m.now())
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m streamModel) View() string {
	header := titleStyle.Render(m.title)
	if m.query != "" {
		header += " " + queryStyle.Render(fitCell(m.query, m.queryWidth()))
	}

	footer := m.status.View(m.frame, m.now())
	if m.err != nil {
		footer = errorBlockStyle.Render(m.err.Error())
	}
	if m.done {
		footer += dimStyle.Render("  " + m.keys.Quit.Help().Key + " " + m.keys.Quit.Help().Desc)
	}

	return header + "\n" + m.viewport.View() + "\n" + footer
}

// queryWidth is the column budget left for the query after the title.
func (m streamModel) queryWidth() int {
	return max(m.width-runewidth.StringWidth(m.title)-1, 10)
}

// resize fits the viewport between the header and footer lines and
// rebuilds the renderer for the new width.
func (m *streamModel) resize(width, height int) {
	if width != m.width || m.term == nil {
		if t, err := render.NewTerminal(max(width-2, 20), m.darkBG); err == nil {
			m.term = t
		}
	}
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 1)
	m.refresh()
}

// refresh re-renders the body, following the tail unless the user scrolled up.
func (m *streamModel) refresh() {
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.rendered())
	if follow {
		m.viewport.GotoBottom()
	}
}

// rendered returns the body as terminal output, or raw when no renderer is
// available or rendering fails.
func (m streamModel) rendered() string {
	if m.term == nil {
		return m.body
	}
	out, err := m.term.Render(m.body)
	if err != nil {
		return m.body
	}
	return out
}

// tuiDisplay forwards display updates to the running program.
type tuiDisplay struct {
	id   string
	send func(tea.Msg)
}

func newTUIDisplay(send func(tea.Msg)) *tuiDisplay {
	return &tuiDisplay{id: render.NewDisplayID(), send: send}
}

func (d *tuiDisplay) ID() string { return d.id }

func (d *tuiDisplay) Update(body string) error {
	d.send(bodyMsg{body: body})
	return nil
}
