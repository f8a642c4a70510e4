package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
)

// Terminal renders Markdown to ANSI-styled text with glamour.
type Terminal struct {
	r *glamour.TermRenderer
}

// NewTerminal creates a terminal renderer wrapping at width (100 when
// non-positive). A fixed style is used so glamour never queries the terminal
// background while a TUI owns the input.
func NewTerminal(width int, darkBG bool) (*Terminal, error) {
	if width <= 0 {
		width = 100
	}

	style := glamourstyles.LightStyleConfig
	if darkBG {
		style = glamourstyles.DarkStyleConfig
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("render: terminal renderer: %w", err)
	}

	return &Terminal{r: r}, nil
}

// Render converts markdown to terminal output without trailing newlines.
func (t *Terminal) Render(markdown string) (string, error) {
	out, err := t.r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

// Header is empty for terminal output.
func (t *Terminal) Header() string { return "" }
