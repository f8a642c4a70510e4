// Package notebook decodes the Jupyter/Colab notebook JSON consumed by the
// ask commands: cells, their sources and their recorded outputs.
//
// Decoding is tolerant of both spellings of nbformat "multiline strings" (a
// JSON array of lines or a single string) and keeps MIME bundle keys in
// document order, which the context extractors rely on.
package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// TriggerLine is the first source line of a code cell that marks it as a
// user question addressed to the assistant.
const TriggerLine = "%%ask\n"

// ErrNotNotebook is returned when a document has neither an "ipynb" envelope
// nor a top-level "cells" array.
var ErrNotNotebook = errors.New("notebook: document has no cells")

// CellType is the kind of a notebook cell.
type CellType string

const (
	Markdown CellType = "markdown"
	Code     CellType = "code"
	Raw      CellType = "raw"
)

// Notebook is a decoded nbformat v4 document.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	NBFormat      int            `json:"nbformat,omitempty"`
	NBFormatMinor int            `json:"nbformat_minor,omitempty"`
}

// Envelope is the wrapper returned by the notebook host's get_ipynb request.
type Envelope struct {
	IPYNB Notebook `json:"ipynb"`
}

// CellMetadata holds the cell metadata fields the commands read.
type CellMetadata struct {
	ID string `json:"id,omitempty"`
}

// Cell is one notebook unit.
type Cell struct {
	ID             string       `json:"id,omitempty"`
	CellType       CellType     `json:"cell_type"`
	Source         Lines        `json:"source"`
	Metadata       CellMetadata `json:"metadata"`
	Outputs        []Output     `json:"outputs,omitempty"`
	ExecutionCount *int         `json:"execution_count,omitempty"`
}

// CellID returns the cell's metadata.id, falling back to the nbformat 4.5
// top-level id when the metadata carries none.
func (c Cell) CellID() string {
	if c.Metadata.ID != "" {
		return c.Metadata.ID
	}
	return c.ID
}

// IsAsk reports whether c is a user question cell: a code cell with more
// than one source line whose first line is exactly TriggerLine.
func (c Cell) IsAsk() bool {
	return len(c.Source) > 1 && c.Source[0] == TriggerLine
}

// Before returns the cells strictly before the first cell whose id equals
// cellID. When no cell matches, the whole list is returned and found is false.
func (nb Notebook) Before(cellID string) (cells []Cell, found bool) {
	for i, c := range nb.Cells {
		if c.CellID() == cellID {
			return nb.Cells[:i:i], true
		}
	}
	return nb.Cells, false
}

// Decode reads a notebook from r. It accepts the host envelope
// {"ipynb": {...}} as well as a bare nbformat document.
func Decode(r io.Reader) (Notebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Notebook{}, fmt.Errorf("notebook: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes a notebook from raw JSON. See Decode.
func Parse(data []byte) (Notebook, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Notebook{}, fmt.Errorf("notebook: parse: %w", err)
	}

	body := data
	if inner, ok := probe["ipynb"]; ok {
		body = inner
		probe = nil
		if err := json.Unmarshal(inner, &probe); err != nil {
			return Notebook{}, fmt.Errorf("notebook: parse ipynb: %w", err)
		}
	}

	if _, ok := probe["cells"]; !ok {
		return Notebook{}, ErrNotNotebook
	}

	var nb Notebook
	if err := json.Unmarshal(body, &nb); err != nil {
		return Notebook{}, fmt.Errorf("notebook: parse: %w", err)
	}

	return nb, nil
}

// Load reads and decodes the notebook file at path.
func Load(path string) (Notebook, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-provided
	if err != nil {
		return Notebook{}, fmt.Errorf("notebook: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}
