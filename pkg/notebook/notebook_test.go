package notebook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envelopeJSON = `{
  "ipynb": {
    "nbformat": 4,
    "nbformat_minor": 0,
    "metadata": {"colab": {"provenance": []}},
    "cells": [
      {"cell_type": "markdown", "source": ["# Title\n", "Intro"], "metadata": {"id": "md1"}},
      {"cell_type": "code", "source": ["print('hi')"], "metadata": {"id": "c1"},
       "outputs": [{"output_type": "stream", "name": "stdout", "text": ["hi\n"]}]},
      {"cell_type": "code", "source": ["%%ask\n", "why?"], "metadata": {"id": "ask1"}, "outputs": []}
    ]
  }
}`

func cells(ids ...string) Notebook {
	var nb Notebook
	for _, id := range ids {
		nb.Cells = append(nb.Cells, Cell{CellType: Code, Metadata: CellMetadata{ID: id}})
	}
	return nb
}

func ids(cs []Cell) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.CellID())
	}
	return out
}

func TestParse_Envelope(t *testing.T) {
	nb, err := Parse([]byte(envelopeJSON))
	require.NoError(t, err)

	require.Len(t, nb.Cells, 3)
	assert.Equal(t, 4, nb.NBFormat)
	assert.Equal(t, Markdown, nb.Cells[0].CellType)
	assert.Equal(t, Lines{"# Title\n", "Intro"}, nb.Cells[0].Source)
	assert.Equal(t, "c1", nb.Cells[1].CellID())
	require.Len(t, nb.Cells[1].Outputs, 1)
	assert.Equal(t, Stream, nb.Cells[1].Outputs[0].OutputType)
	assert.Equal(t, "hi\n", nb.Cells[1].Outputs[0].Text.String())
}

func TestParse_BareNotebook(t *testing.T) {
	nb, err := Parse([]byte(`{"cells": [{"cell_type": "code", "source": "a = 1\nb = 2", "metadata": {}, "id": "top"}]}`))
	require.NoError(t, err)

	require.Len(t, nb.Cells, 1)
	assert.Equal(t, Lines{"a = 1\n", "b = 2"}, nb.Cells[0].Source)
	assert.Equal(t, "top", nb.Cells[0].CellID())
}

func TestParse_NotNotebook(t *testing.T) {
	_, err := Parse([]byte(`{"hello": "world"}`))
	assert.ErrorIs(t, err, ErrNotNotebook)

	_, err = Parse([]byte(`{"ipynb": {"metadata": {}}}`))
	assert.ErrorIs(t, err, ErrNotNotebook)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"cells": [`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nb.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(envelopeJSON), 0o600))

	nb, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 3)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ipynb"))
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	nb, err := Decode(strings.NewReader(envelopeJSON))
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 3)
}

func TestBefore(t *testing.T) {
	nb := cells("a", "b", "c", "d")

	tests := []struct {
		id    string
		want  []string
		found bool
	}{
		{"a", []string{}, true},
		{"b", []string{"a"}, true},
		{"d", []string{"a", "b", "c"}, true},
		{"zzz", []string{"a", "b", "c", "d"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, found := nb.Before(tt.id)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestBefore_FirstMatchWins(t *testing.T) {
	nb := cells("a", "dup", "b", "dup")

	got, found := nb.Before("dup")
	assert.True(t, found)
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestBefore_PrefixCannotGrowIntoNotebook(t *testing.T) {
	nb := cells("a", "b", "c")

	got, _ := nb.Before("b")
	_ = append(got, Cell{Metadata: CellMetadata{ID: "x"}})

	assert.Equal(t, "b", nb.Cells[1].CellID())
}

func TestCell_IsAsk(t *testing.T) {
	tests := []struct {
		name   string
		source Lines
		want   bool
	}{
		{"question", Lines{"%%ask\n", "explain recursion"}, true},
		{"marker only", Lines{"%%ask\n"}, false},
		{"marker without newline", Lines{"%%ask", "x"}, false},
		{"marker not first", Lines{"x = 1\n", "%%ask\n"}, false},
		{"plain code", Lines{"print(1)"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Cell{CellType: Code, Source: tt.source}
			assert.Equal(t, tt.want, c.IsAsk())
		})
	}
}

func TestCell_CellID_PrefersMetadata(t *testing.T) {
	c := Cell{ID: "top", Metadata: CellMetadata{ID: "meta"}}
	assert.Equal(t, "meta", c.CellID())
}

func TestEnvelope_RoundTrip(t *testing.T) {
	in := Envelope{IPYNB: Notebook{Cells: []Cell{{
		CellType: Code,
		Source:   Lines{"%%ask\n", "q"},
		Metadata: CellMetadata{ID: "x"},
		Outputs: []Output{{
			OutputType: DisplayData,
			Data:       MimeBundle{{Type: "text/plain", Value: Lines{"<Figure>"}}},
		}},
	}}}}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	nb, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, in.IPYNB.Cells, nb.Cells)
}
