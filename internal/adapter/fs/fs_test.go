package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relocate/internal/adapter/metafile"
	"relocate/internal/domain"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

const libMap = `{"version":3,"sources":["../../src/lib.js"],"names":[],"mappings":"AAAA"}`

func sampleDir(t *testing.T) string {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.js":                       "import x from \"./node_modules/lib/index.js\";\nconsole.log(x);\n",
		"node_modules/lib/index.js":     "export default 1;\n",
		"node_modules/lib/index.js.map": libMap,
		"style.css":                     "body{}",
		".relocate/ledger.db":           "binary",
	})
	return root
}

func newLoader() *Loader {
	return NewLoader(NewWalker(nil, []string{".relocate/**"}), []string{".js", ".mjs", ".cjs"})
}

func TestWalker(t *testing.T) {
	root := sampleDir(t)

	files, err := NewWalker(nil, []string{".relocate/**", "**/*.css"}).Walk(root)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
		assert.True(t, filepath.IsAbs(f.Path))
	}
	assert.Equal(t, []string{"main.js", "node_modules/lib/index.js", "node_modules/lib/index.js.map"}, rels)
}

func TestLoader_Load(t *testing.T) {
	root := sampleDir(t)

	var calls int
	b, err := newLoader().Load(context.Background(), root, func(processed, total int, _ string) {
		calls++
		assert.LessOrEqual(t, processed, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	assert.Equal(t, []string{"main.js", "node_modules/lib/index.js", "style.css"}, b.Keys())

	e, _ := b.Get("main.js")
	main := e.(*domain.Chunk)
	assert.Equal(t, []string{"node_modules/lib/index.js"}, main.Imports)
	assert.Nil(t, main.Map)

	e, _ = b.Get("node_modules/lib/index.js")
	lib := e.(*domain.Chunk)
	require.NotNil(t, lib.Map, "adjacent .map attaches to its chunk")
	assert.Equal(t, []string{"../../src/lib.js"}, lib.Map.Sources)

	e, _ = b.Get("style.css")
	asset, ok := e.(*domain.Asset)
	require.True(t, ok)
	assert.Equal(t, []byte("body{}"), asset.Source)
}

func TestLoader_Metafile(t *testing.T) {
	root := sampleDir(t)
	m := &metafile.Metafile{Outputs: map[string]metafile.Output{
		"dist/main.js": {Imports: []metafile.Import{
			{Path: "dist/node_modules/lib/index.js", Kind: "dynamic-import"},
		}},
		"dist/node_modules/lib/index.js": {},
	}}

	b, err := newLoader().WithMetafile(m).Load(context.Background(), root, nil)
	require.NoError(t, err)

	e, _ := b.Get("main.js")
	main := e.(*domain.Chunk)
	assert.Empty(t, main.Imports)
	assert.Equal(t, []string{"node_modules/lib/index.js"}, main.DynamicImports)
}

func TestLoader_ParseError(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"bad.js": "import {"})

	_, err := newLoader().Load(context.Background(), root, nil)
	assert.Error(t, err)
}

func TestLoader_Cancelled(t *testing.T) {
	root := sampleDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLoader().Load(ctx, root, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriter_Write(t *testing.T) {
	root := sampleDir(t)

	b := domain.NewBundle()
	b.Set("main.js", &domain.Chunk{
		FileName: "main.js",
		Code:     "import x from \"./external/lib/index.js\";\nconsole.log(x);\n",
		Map:      &domain.SourceMap{Version: 3, Sources: []string{"main.js"}, Mappings: "AAAA"},
	})
	b.Set("external/lib/index.js", &domain.Chunk{FileName: "external/lib/index.js", Code: "export default 1;\n"})
	b.Set("style.css", &domain.Asset{FileName: "style.css", Source: []byte("body{}")})

	result := &domain.PassResult{
		Renamed:   []domain.Rename{{From: "node_modules/lib/index.js", To: "external/lib/index.js"}},
		Rewritten: []string{"main.js"},
	}

	require.NoError(t, NewWriter().Write(context.Background(), root, b, result, nil))

	data, err := os.ReadFile(filepath.Join(root, "main.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "./external/lib/index.js")

	data, err = os.ReadFile(filepath.Join(root, "main.js.map"))
	require.NoError(t, err)
	var sm domain.SourceMap
	require.NoError(t, json.Unmarshal(data, &sm))
	assert.Equal(t, "AAAA", sm.Mappings)

	assert.FileExists(t, filepath.Join(root, "external", "lib", "index.js"))
	assert.FileExists(t, filepath.Join(root, "external", "lib", "index.js.map"), "untouched map follows its chunk")
	assert.NoDirExists(t, filepath.Join(root, "node_modules"), "emptied directories are pruned")
	assert.FileExists(t, filepath.Join(root, "style.css"))
}

func TestWriter_ChainedRenames(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a1.txt": "one", "a2.txt": "two"})

	result := &domain.PassResult{Renamed: []domain.Rename{
		{From: "a1.txt", To: "a2.txt"},
		{From: "a2.txt", To: "a3.txt"},
	}}
	require.NoError(t, NewWriter().Write(context.Background(), root, domain.NewBundle(), result, nil))

	data, err := os.ReadFile(filepath.Join(root, "a2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
	data, err = os.ReadFile(filepath.Join(root, "a3.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	assert.NoFileExists(t, filepath.Join(root, "a1.txt"))
}

func TestWriter_RefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"node_modules/a.js": "1",
		"external/a.js":     "2",
	})

	result := &domain.PassResult{Renamed: []domain.Rename{{From: "node_modules/a.js", To: "external/a.js"}}}
	err := NewWriter().Write(context.Background(), root, domain.NewBundle(), result, nil)
	assert.Error(t, err)
	assert.FileExists(t, filepath.Join(root, "node_modules", "a.js"))
}
