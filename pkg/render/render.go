package render

import (
	"fmt"
)

// Renderer converts Markdown to display content.
type Renderer interface {
	// Render converts the full Markdown document.
	Render(markdown string) (string, error)
	// Header returns content that must be shown once alongside the first
	// render (stylesheets, scripts). It may be empty.
	Header() string
}

// Highlight selects how fenced code blocks are highlighted in HTML output.
type Highlight string

const (
	// HighlightPrism leaves code to Prism.js running in the page.
	HighlightPrism Highlight = "prism"
	// HighlightChroma highlights code server-side with inline styles.
	HighlightChroma Highlight = "chroma"
)

// ParseHighlight validates a highlight mode name. Empty selects HighlightPrism.
func ParseHighlight(s string) (Highlight, error) {
	switch Highlight(s) {
	case "", HighlightPrism:
		return HighlightPrism, nil
	case HighlightChroma:
		return HighlightChroma, nil
	default:
		return "", fmt.Errorf("render: unknown highlight mode %q", s)
	}
}

// Markdown passes Markdown through unchanged. Displays that render on their
// own, such as a terminal view that re-wraps on resize, use it.
type Markdown struct{}

// Render returns markdown as is.
func (Markdown) Render(markdown string) (string, error) { return markdown, nil }

// Header is empty.
func (Markdown) Header() string { return "" }
