package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/germanamz/nbask/pkg/askdir"
	"github.com/germanamz/nbask/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestReadQuery(t *testing.T) {
	q, err := readQuery([]string{"what", "next?"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "what next?", q)

	q, err = readQuery(nil, strings.NewReader("  from stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", q)

	_, err = readQuery(nil, strings.NewReader("   \n"))
	assert.ErrorContains(t, err, "empty query")

	_, err = readQuery(nil, failingReader{})
	assert.ErrorContains(t, err, "read failed")
}

func TestHTMLPath(t *testing.T) {
	d := askdir.New(t.TempDir())

	assert.Equal(t, "out.html", htmlPath("out.html", d, "ask1"))
	assert.Equal(t, filepath.Join(d.AnswersDir(), "ask1.html"), htmlPath("", d, "ask1"))
}

func TestAskPlain(t *testing.T) {
	eng, sess := newTestEngine(t, "Try ", "**plotting**.")

	var out bytes.Buffer
	require.NoError(t, askPlain(context.Background(), eng, sess, testRequest(t), &out))

	assert.Equal(t, "Try **plotting**.\n", out.String())
}

func TestAskHTML(t *testing.T) {
	eng, sess := newTestEngine(t, "Hello ", "**world**")
	path := filepath.Join(t.TempDir(), "answers", "ask1.html")

	require.NoError(t, askHTML(context.Background(), eng, sess, testRequest(t), path, newLogger(&bytes.Buffer{}, false)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "<strong>world</strong>")
	assert.Contains(t, page, render.PrismTrigger)
	assert.Contains(t, page, "prism-okaidia.min.css")
	assert.NotContains(t, page, `http-equiv="refresh"`)
}

func TestAskHTML_ProviderError(t *testing.T) {
	eng, sess := newTestEngine(t)
	require.NoError(t, sess.SetModel("unrouted-model"))

	path := filepath.Join(t.TempDir(), "ask1.html")
	err := askHTML(context.Background(), eng, sess, testRequest(t), path, newLogger(&bytes.Buffer{}, false))

	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no page is opened before routing succeeds")
}
