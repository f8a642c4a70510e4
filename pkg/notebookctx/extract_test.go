package notebookctx

import (
	"testing"

	"github.com/germanamz/nbask/pkg/notebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(frags []Fragment) []string {
	var out []string
	for _, f := range frags {
		if f.Kind() == KindText {
			out = append(out, f.Text())
		}
	}
	return out
}

func TestExtractor_Markdown(t *testing.T) {
	c := notebook.Cell{CellType: notebook.Markdown, Source: notebook.Lines{"Hello **world**"}}

	frags, err := Extractor{}.Markdown(c)
	require.NoError(t, err)

	require.Len(t, frags, 2)
	assert.Equal(t, []string{"## Markdown Cell\n", "Hello **world**"}, texts(frags))
}

func TestExtractor_Markdown_InlineImage(t *testing.T) {
	img := pngBytes(t)
	c := notebook.Cell{CellType: notebook.Markdown, Source: notebook.Lines{
		"Look:\n",
		"![plot](data:image/png;base64," + b64(img) + ")\n",
		"done",
	}}

	frags, err := Extractor{}.Markdown(c)
	require.NoError(t, err)

	require.Len(t, frags, 4)
	assert.Equal(t, KindText, frags[1].Kind())
	assert.Equal(t, KindImage, frags[2].Kind())
	assert.Equal(t, img, frags[2].Data())
	assert.Equal(t, "done", frags[3].Text())
}

func TestExtractor_Markdown_MalformedImage(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no base64 marker", "![x](data:image/png,abc)"},
		{"bad payload", "![x](data:image/png;base64,@@@not-base64@@@)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := notebook.Cell{CellType: notebook.Markdown, Source: notebook.Lines{tt.line}}
			_, err := Extractor{}.Markdown(c)
			assert.Error(t, err)
		})
	}

	c := notebook.Cell{CellType: notebook.Markdown, Source: notebook.Lines{"![x](data:image/png,abc)"}}
	_, err := Extractor{}.Markdown(c)
	assert.ErrorIs(t, err, ErrImageMarkup)
}

func TestExtractor_Code(t *testing.T) {
	c := notebook.Cell{CellType: notebook.Code, Source: notebook.Lines{"x = 1\n", "print(x)"}}

	assert.Equal(t, []string{"Code Cell\n", "x = 1\nprint(x)"}, texts(Extractor{}.Code(c, KindCode)))
	assert.Equal(t, []string{"User Question Cell\n", "x = 1\nprint(x)"}, texts(Extractor{}.Code(c, KindQuestion)))
}

func TestKindOf(t *testing.T) {
	ask := notebook.Cell{CellType: notebook.Code, Source: notebook.Lines{"%%ask\n", "explain recursion"}}
	plain := notebook.Cell{CellType: notebook.Code, Source: notebook.Lines{"print(1)"}}

	assert.Equal(t, KindQuestion, KindOf(ask))
	assert.Equal(t, KindCode, KindOf(plain))
}

func TestExtractor_Outputs_Stream(t *testing.T) {
	c := notebook.Cell{CellType: notebook.Code, Outputs: []notebook.Output{
		{OutputType: notebook.Stream, Name: "stdout", Text: notebook.Lines{"line1\n", "line2"}},
	}}

	frags, err := Extractor{}.Outputs(c, KindQuestion)
	require.NoError(t, err)
	assert.Equal(t, []string{"line1\nline2"}, texts(frags))
}

func TestExtractor_Outputs_Error(t *testing.T) {
	c := notebook.Cell{CellType: notebook.Code, Outputs: []notebook.Output{
		{OutputType: notebook.Error, EName: "ValueError", EValue: "X", Traceback: []string{"t1", "t2"}},
	}}

	frags, err := Extractor{}.Outputs(c, KindQuestion)
	require.NoError(t, err)
	assert.Equal(t, []string{"#### Error\n", "evalue:X\n\n traceback:['t1', 't2']"}, texts(frags))
}

func TestExtractor_Outputs_LabelOnlyForCode(t *testing.T) {
	c := notebook.Cell{CellType: notebook.Code}

	frags, err := Extractor{}.Outputs(c, KindCode)
	require.NoError(t, err)
	assert.Equal(t, []string{OutputLabel}, texts(frags))

	frags, err = Extractor{}.Outputs(c, KindQuestion)
	require.NoError(t, err)
	assert.Empty(t, frags)
}

func TestExtractor_Outputs_DisplayDataKeyOrder(t *testing.T) {
	img := pngBytes(t)
	c := notebook.Cell{CellType: notebook.Code, Outputs: []notebook.Output{{
		OutputType: notebook.DisplayData,
		Data: notebook.MimeBundle{
			{Type: "text/plain", Value: notebook.Lines{"<Figure size 640x480>"}},
			{Type: "image/png", Value: notebook.SplitLines(b64(img) + "\n")},
			{Type: "text/html", Value: notebook.Lines{"<b>x</b>"}},
		},
	}}}

	frags, err := Extractor{}.Outputs(c, KindCode)
	require.NoError(t, err)

	require.Len(t, frags, 4)
	assert.Equal(t, OutputLabel, frags[0].Text())
	assert.Equal(t, "<Figure size 640x480>", frags[1].Text())
	assert.Equal(t, KindImage, frags[2].Kind())
	assert.Equal(t, img, frags[2].Data())
	assert.Equal(t, "<b>x</b>", frags[3].Text())
}

func TestExtractor_Outputs_BadImagePayload(t *testing.T) {
	c := notebook.Cell{CellType: notebook.Code, Outputs: []notebook.Output{{
		OutputType: notebook.DisplayData,
		Data:       notebook.MimeBundle{{Type: "image/png", Value: notebook.Lines{"%%%"}}},
	}}}

	_, err := Extractor{}.Outputs(c, KindCode)
	assert.Error(t, err)
}

func TestExtractor_Outputs_ExecuteResult(t *testing.T) {
	c := notebook.Cell{CellType: notebook.Code, Outputs: []notebook.Output{{
		OutputType: notebook.ExecuteResult,
		Data:       notebook.MimeBundle{{Type: "text/plain", Value: notebook.Lines{"42"}}},
	}}}

	frags, err := Extractor{}.Outputs(c, KindQuestion)
	require.NoError(t, err)
	assert.Empty(t, frags)

	frags, err = Extractor{IncludeExecuteResults: true}.Outputs(c, KindQuestion)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, texts(frags))
}
