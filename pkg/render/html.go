package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// PrismHeader loads the Prism theme and language components used to
// highlight code blocks in the browser.
const PrismHeader = `
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/themes/prism-okaidia.min.css">
<script src="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/prism.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/components/prism-python.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/components/prism-c.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/components/prism-cpp.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/components/prism-java.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/components/prism-json.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/components/prism-yaml.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/prism/1.29.0/components/prism-bash.min.js"></script>
<script>Prism.highlightAll();</script>
`

// PrismTrigger re-runs Prism over the page after each render.
const PrismTrigger = "<script>Prism.highlightAll()</script>"

// HTML renders Markdown to HTML with goldmark.
type HTML struct {
	md        goldmark.Markdown
	highlight Highlight
}

// NewHTML creates an HTML renderer. Raw HTML in the Markdown is passed
// through unchanged.
func NewHTML(highlight Highlight) *HTML {
	rendererOpts := []renderer.Option{html.WithUnsafe()}
	if highlight == HighlightChroma {
		rendererOpts = append(rendererOpts, renderer.WithNodeRenderers(
			util.Prioritized(newChromaCodeRenderer(defaultChromaStyle), 100),
		))
	}

	return &HTML{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithRendererOptions(rendererOpts...),
		),
		highlight: highlight,
	}
}

// Render converts markdown to an HTML fragment. In Prism mode the fragment
// ends with a script that re-highlights the page.
func (h *HTML) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render: convert markdown: %w", err)
	}

	if h.highlight != HighlightChroma {
		buf.WriteString(PrismTrigger)
	}

	return buf.String(), nil
}

// Header returns PrismHeader in Prism mode and nothing otherwise.
func (h *HTML) Header() string {
	if h.highlight == HighlightChroma {
		return ""
	}
	return PrismHeader
}
