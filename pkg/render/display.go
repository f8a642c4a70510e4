package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Display is an updatable output region. Each Update replaces the whole
// region content.
type Display interface {
	ID() string
	Update(body string) error
}

// DisplayFactory opens a new display. header is shown once with the display
// and may be empty.
type DisplayFactory func(header string) (Display, error)

// NewDisplayID returns a fresh display identifier.
func NewDisplayID() string {
	return uuid.NewString()
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{- if .Refresh}}
<meta http-equiv="refresh" content="{{.Refresh}}">
{{- end}}
<title>{{.Title}}</title>
</head>
<body id="{{.ID}}">
{{.Body}}
{{.Header}}
</body>
</html>
`))

type pageData struct {
	ID      string
	Title   string
	Refresh int
	Header  template.HTML
	Body    template.HTML
}

// HTMLFile is a Display that rewrites a standalone HTML page on every
// update. While open the page asks the browser to reload every second.
type HTMLFile struct {
	mu     sync.Mutex
	path   string
	id     string
	title  string
	header string
	body   string
	closed bool
}

// NewHTMLFile creates the page at path with an empty body.
func NewHTMLFile(path, title, header string) (*HTMLFile, error) {
	f := &HTMLFile{
		path:   path,
		id:     NewDisplayID(),
		title:  title,
		header: header,
	}

	if err := f.write(); err != nil {
		return nil, err
	}

	return f, nil
}

// HTMLFileFactory returns a DisplayFactory creating pages at path.
func HTMLFileFactory(path, title string) DisplayFactory {
	return func(header string) (Display, error) {
		f, err := NewHTMLFile(path, title, header)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// ID returns the display identifier.
func (f *HTMLFile) ID() string { return f.id }

// Path returns the page location.
func (f *HTMLFile) Path() string { return f.path }

// Update replaces the page body.
func (f *HTMLFile) Update(body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("render: display %s is closed", f.id)
	}

	f.body = body

	return f.write()
}

// Close writes the final page without the reload directive.
func (f *HTMLFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	return f.write()
}

// write replaces the file through a rename so readers never see a partial page.
func (f *HTMLFile) write() error {
	refresh := 1
	if f.closed {
		refresh = 0
	}

	var sb strings.Builder
	err := pageTemplate.Execute(&sb, pageData{
		ID:      f.id,
		Title:   f.title,
		Refresh: refresh,
		Header:  template.HTML(f.header), //nolint:gosec // header is a trusted constant.
		Body:    template.HTML(f.body),   //nolint:gosec // body is rendered Markdown.
	})
	if err != nil {
		return fmt.Errorf("render: execute page template: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".nbask-*.html")
	if err != nil {
		return fmt.Errorf("render: create temp page: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(sb.String()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("render: write page: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("render: close page: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("render: replace page: %w", err)
	}

	return nil
}
