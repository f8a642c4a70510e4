package main

import (
	"io"
	"strings"

	"github.com/germanamz/nbask/pkg/render"
)

// plainDisplay writes raw Markdown to a writer as it grows. Each update
// carries the whole answer so far; only the unseen suffix is written.
type plainDisplay struct {
	id      string
	w       io.Writer
	written string
}

func newPlainDisplay(w io.Writer) *plainDisplay {
	return &plainDisplay{id: render.NewDisplayID(), w: w}
}

func (d *plainDisplay) ID() string { return d.id }

func (d *plainDisplay) Update(body string) error {
	chunk := "\n" + body
	if strings.HasPrefix(body, d.written) {
		chunk = body[len(d.written):]
	}
	d.written = body

	_, err := io.WriteString(d.w, chunk)
	return err
}
