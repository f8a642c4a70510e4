package notebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMimeBundle_PreservesKeyOrder(t *testing.T) {
	var b MimeBundle
	require.NoError(t, json.Unmarshal([]byte(`{"text/plain": ["<Figure>"], "image/png": "iVBOR", "text/html": "<b>x</b>"}`), &b))

	require.Len(t, b, 3)
	assert.Equal(t, "text/plain", b[0].Type)
	assert.Equal(t, "image/png", b[1].Type)
	assert.Equal(t, "text/html", b[2].Type)
	assert.Equal(t, "iVBOR", b[1].Value.String())
}

func TestMimeBundle_NonStringPayload(t *testing.T) {
	var b MimeBundle
	require.NoError(t, json.Unmarshal([]byte(`{"application/json": {"a": 1}}`), &b))

	require.Len(t, b, 1)
	assert.Equal(t, "application/json", b[0].Type)
	assert.JSONEq(t, `{"a": 1}`, b[0].Value.String())
}

func TestMimeBundle_NotObject(t *testing.T) {
	var b MimeBundle
	assert.Error(t, json.Unmarshal([]byte(`["text/plain"]`), &b))
}

func TestMimeBundle_MarshalJSON_Order(t *testing.T) {
	b := MimeBundle{
		{Type: "text/plain", Value: Lines{"a"}},
		{Type: "image/png", Value: Lines{"b"}},
	}

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"text/plain":["a"],"image/png":["b"]}`, string(data))
}

func TestOutput_Error(t *testing.T) {
	var o Output
	require.NoError(t, json.Unmarshal([]byte(`{"output_type": "error", "ename": "ValueError", "evalue": "X", "traceback": ["t1", "t2"]}`), &o))

	assert.Equal(t, Error, o.OutputType)
	assert.Equal(t, "ValueError", o.EName)
	assert.Equal(t, "X", o.EValue)
	assert.Equal(t, []string{"t1", "t2"}, o.Traceback)
}
