package notebookctx

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/germanamz/nbask/pkg/chats/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Text(t *testing.T) {
	parts, err := Format([]Fragment{TextFragment(MarkdownLabel), TextFragment("Hello **world**")})
	require.NoError(t, err)

	assert.Equal(t, []content.Part{
		content.Text{Text: "## Markdown Cell\n"},
		content.Text{Text: "Hello **world**"},
	}, parts)
}

func TestFormat_DropsEmptyText(t *testing.T) {
	parts, err := Format([]Fragment{TextFragment(""), TextFragment("x"), TextFragment("")})
	require.NoError(t, err)

	assert.Equal(t, []content.Part{content.Text{Text: "x"}}, parts)
}

func TestFormat_OnlyEmptyText(t *testing.T) {
	parts, err := Format([]Fragment{TextFragment(""), TextFragment("")})
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestFormat_ImageFormatInferred(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", pngBytes(t), "png"},
		{"jpeg", jpegBytes(t), "jpeg"},
		{"gif", gifBytes(t), "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := Format([]Fragment{ImageFragment(tt.data)})
			require.NoError(t, err)
			require.Len(t, parts, 1)

			img, ok := parts[0].(content.Image)
			require.True(t, ok)
			assert.Equal(t, "image/"+tt.format, img.MediaType)
			assert.True(t, strings.HasPrefix(img.DataURI(), "data:image/"+tt.format+";base64,"))
		})
	}
}

func TestFormat_DataURIRoundTrip(t *testing.T) {
	data := pngBytes(t)

	parts, err := Format([]Fragment{ImageFragment(data)})
	require.NoError(t, err)

	uri := parts[0].(content.Image).DataURI()
	_, payload, ok := strings.Cut(uri, "base64,")
	require.True(t, ok)

	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestFormat_Idempotent(t *testing.T) {
	frags := []Fragment{TextFragment("a"), ImageFragment(pngBytes(t)), TextFragment("b")}

	first, err := Format(frags)
	require.NoError(t, err)
	second, err := Format(frags)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFormat_UndecodableImage(t *testing.T) {
	_, err := Format([]Fragment{ImageFragment([]byte("definitely not an image"))})
	assert.Error(t, err)
}

func TestFormat_InvalidFragment(t *testing.T) {
	_, err := Format([]Fragment{TextFragment("ok"), {}})
	assert.ErrorIs(t, err, ErrUnknownFragment)
}

func TestImageFormat(t *testing.T) {
	f, err := ImageFormat(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "png", f)

	_, err = ImageFormat(nil)
	assert.Error(t, err)
}
