package notebookctx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/germanamz/nbask/pkg/notebook"
)

// Section labels prepended to extracted content.
const (
	MarkdownLabel = "## Markdown Cell\n"
	OutputLabel   = "### Code Cell Output\n"
	ErrorLabel    = "#### Error\n"
)

// inlineImageMarker identifies a markdown line with an embedded data URI image.
const inlineImageMarker = "(data:image/"

// ErrImageMarkup is returned for a markdown line that looks like an embedded
// image but has no base64 payload.
var ErrImageMarkup = errors.New("notebookctx: malformed embedded image")

// CellKind distinguishes ordinary code cells from user question cells.
type CellKind int

const (
	KindCode CellKind = iota
	KindQuestion
)

// Label returns the section label of a code cell of this kind.
func (k CellKind) Label() string {
	if k == KindQuestion {
		return "User Question Cell\n"
	}
	return "Code Cell\n"
}

// KindOf classifies a code cell.
func KindOf(c notebook.Cell) CellKind {
	if c.IsAsk() {
		return KindQuestion
	}
	return KindCode
}

// Extractor reduces cells to fragments.
type Extractor struct {
	// IncludeExecuteResults treats execute_result outputs like display_data.
	// When false they are skipped.
	IncludeExecuteResults bool
}

// Markdown extracts a markdown cell: the markdown label, then every source
// line verbatim, except lines carrying an embedded base64 image, which are
// decoded to image bytes.
func (e Extractor) Markdown(c notebook.Cell) ([]Fragment, error) {
	frags := make([]Fragment, 0, len(c.Source)+1)
	frags = append(frags, TextFragment(MarkdownLabel))

	for i, line := range c.Source {
		if !strings.Contains(line, inlineImageMarker) {
			frags = append(frags, TextFragment(line))
			continue
		}

		data, err := decodeInlineImage(line)
		if err != nil {
			return nil, fmt.Errorf("notebookctx: markdown cell %q line %d: %w", c.CellID(), i+1, err)
		}
		frags = append(frags, ImageFragment(data))
	}

	return frags, nil
}

// Code extracts a code cell's label and its full source as one fragment.
func (e Extractor) Code(c notebook.Cell, kind CellKind) []Fragment {
	return []Fragment{
		TextFragment(kind.Label()),
		TextFragment(c.Source.String()),
	}
}

// Outputs extracts the recorded outputs of a code cell. Ordinary code cells
// get an output label; the answer captured under a question cell does not.
func (e Extractor) Outputs(c notebook.Cell, kind CellKind) ([]Fragment, error) {
	var frags []Fragment
	if kind == KindCode {
		frags = append(frags, TextFragment(OutputLabel))
	}

	for i, out := range c.Outputs {
		switch out.OutputType {
		case notebook.DisplayData:
			bundle, err := bundleFragments(out.Data)
			if err != nil {
				return nil, fmt.Errorf("notebookctx: cell %q output %d: %w", c.CellID(), i, err)
			}
			frags = append(frags, bundle...)

		case notebook.ExecuteResult:
			if !e.IncludeExecuteResults {
				continue
			}
			bundle, err := bundleFragments(out.Data)
			if err != nil {
				return nil, fmt.Errorf("notebookctx: cell %q output %d: %w", c.CellID(), i, err)
			}
			frags = append(frags, bundle...)

		case notebook.Stream:
			frags = append(frags, TextFragment(out.Text.String()))

		case notebook.Error:
			frags = append(frags,
				TextFragment(ErrorLabel),
				TextFragment(fmt.Sprintf("evalue:%s\n\n traceback:%s", out.EValue, PyListRepr(out.Traceback))),
			)
		}
	}

	return frags, nil
}

// bundleFragments walks a MIME bundle in key order. Keys mentioning "image"
// contribute decoded image bytes, keys mentioning "text" contribute text.
func bundleFragments(b notebook.MimeBundle) ([]Fragment, error) {
	var frags []Fragment
	for _, e := range b {
		if strings.Contains(e.Type, "image") {
			data, err := decodeBase64(e.Value.String())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Type, err)
			}
			frags = append(frags, ImageFragment(data))
		}
		if strings.Contains(e.Type, "text") {
			frags = append(frags, TextFragment(e.Value.String()))
		}
	}
	return frags, nil
}

// decodeInlineImage decodes the payload between "base64," and the closing
// parenthesis of a markdown image data URI.
func decodeInlineImage(line string) ([]byte, error) {
	_, rest, ok := strings.Cut(line, "base64,")
	if !ok {
		return nil, ErrImageMarkup
	}
	payload, _, _ := strings.Cut(rest, ")")

	return decodeBase64(payload)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return data, nil
}
