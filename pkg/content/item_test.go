package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemShapes(t *testing.T) {
	assert.Equal(t, ShapeDirectory, NewDirectory("pkg", "pkg", "u").Shape())
	assert.Equal(t, ShapeFileDirect, NewFile("a", "a", "u", "d", 1).Shape())
	assert.Equal(t, ShapeFileIndirect, NewFile("a", "a", "u", "", 1).Shape())
	assert.Equal(t, ShapeFileInline, NewInlineFile("a", "a", "u", []byte("x")).Shape())
	assert.Equal(t, ShapeUnsupported, NewUnsupported("l", "l", "u", "submodule").Shape())
}

func TestItemPathNormalized(t *testing.T) {
	assert.Equal(t, "pkg/a.mon", NewFile("/pkg/a.mon", "a.mon", "u", "", 0).Path())
	assert.Equal(t, "pkg/a.mon", NewFile(`pkg\a.mon`, "a.mon", "u", "", 0).Path())
}

func TestItemContentOnlyForInline(t *testing.T) {
	assert.Nil(t, NewFile("a", "a", "u", "", 0).Content())
	assert.Equal(t, []byte("x"), NewInlineFile("a", "a", "u", []byte("x")).Content())
}

func TestItemMarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewDirectory("pkg", "pkg", "https://h/pkg"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"pkg","path":"pkg","type":"dir","url":"https://h/pkg","size":0}`, string(data))
}

func TestDecodeEnvelope_Hello(t *testing.T) {
	data, ok, err := decodeEnvelope([]byte(`{"content":"SGVsbG8=","encoding":"base64"}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hello", string(data))
}
