package wire

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relocate/internal/domain"
)

const manifest = `{
  "z.js": {"type": "chunk", "fileName": "z.js", "code": "require('./node_modules/a.js')", "imports": ["node_modules/a.js"]},
  "node_modules/a.js": {"type": "chunk", "code": "module.exports = 1",
    "map": {"version": 3, "sources": ["a.ts"], "names": [], "mappings": "AAAA"}},
  "b.png": {"type": "asset", "fileName": "b.png", "source": "PNG"}
}`

func TestDecode_PreservesOrder(t *testing.T) {
	b, err := Decode(strings.NewReader(manifest))
	require.NoError(t, err)

	assert.Equal(t, []string{"z.js", "node_modules/a.js", "b.png"}, b.Keys())

	e, _ := b.Get("node_modules/a.js")
	c, ok := e.(*domain.Chunk)
	require.True(t, ok)
	assert.Equal(t, "node_modules/a.js", c.FileName, "missing fileName falls back to the key")
	require.NotNil(t, c.Map)
	assert.Equal(t, []string{"a.ts"}, c.Map.Sources)

	e, _ = b.Get("b.png")
	a, ok := e.(*domain.Asset)
	require.True(t, ok)
	assert.Equal(t, "PNG", string(a.Source))
}

func TestEncode_Order(t *testing.T) {
	b, err := Decode(strings.NewReader(manifest))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Encode(&out, b))

	s := out.String()
	iz := strings.Index(s, `"z.js":`)
	ia := strings.Index(s, `"node_modules/a.js":`)
	ib := strings.Index(s, `"b.png":`)
	assert.True(t, iz < ia && ia < ib, "keys keep bundle order: %s", s)

	again, err := Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, b.Keys(), again.Keys())
}

func TestDecode_Invalid(t *testing.T) {
	tests := map[string]string{
		"not an object": `[]`,
		"unknown type":  `{"a": {"type": "module"}}`,
		"truncated":     `{"a": {"type": "asset"}`,
		"duplicate":     `{"a": {"type": "asset"}, "a": {"type": "asset"}}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(in))
			assert.True(t, errors.Is(err, ErrManifest), "got %v", err)
		})
	}
}
