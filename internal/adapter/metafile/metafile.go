// Package metafile reads the esbuild metafile JSON structure and turns its
// outputs section into per-chunk import lists.
package metafile

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
)

// Metafile represents the esbuild metafile JSON structure
type Metafile struct {
	Inputs  map[string]Input  `json:"inputs"`
	Outputs map[string]Output `json:"outputs"`
}

type Input struct {
	Bytes   int      `json:"bytes"`
	Imports []Import `json:"imports"`
	Format  string   `json:"format,omitempty"` // "cjs" or "esm"
}

type Import struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

type Output struct {
	Bytes      int      `json:"bytes"`
	Imports    []Import `json:"imports"`
	Exports    []string `json:"exports"`
	EntryPoint string   `json:"entryPoint,omitempty"`
}

// ChunkImports are the static and dynamic imports of one output chunk,
// as paths relative to the output directory.
type ChunkImports struct {
	Imports        []string
	DynamicImports []string
}

// Load reads and decodes a metafile.
func Load(filePath string) (*Metafile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Metafile, error) {
	var m Metafile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	return &m, nil
}

// Chunks maps every output chunk to its imports. Output keys in a metafile
// are relative to the esbuild working directory; the directory shared by
// all outputs is stripped so keys line up with bundle keys. External
// imports are dropped.
func (m *Metafile) Chunks() map[string]ChunkImports {
	keys := make([]string, 0, len(m.Outputs))
	for k := range m.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	base := commonDir(keys)

	chunks := make(map[string]ChunkImports, len(keys))
	for _, k := range keys {
		out := m.Outputs[k]
		var ci ChunkImports
		for _, imp := range out.Imports {
			if imp.External {
				continue
			}
			p := trimBase(imp.Path, base)
			if imp.Kind == "dynamic-import" {
				ci.DynamicImports = append(ci.DynamicImports, p)
			} else {
				ci.Imports = append(ci.Imports, p)
			}
		}
		chunks[trimBase(k, base)] = ci
	}
	return chunks
}

func commonDir(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	dir := path.Dir(keys[0])
	for _, k := range keys[1:] {
		for dir != "." && !strings.HasPrefix(k, dir+"/") {
			dir = path.Dir(dir)
		}
	}
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func trimBase(p, base string) string {
	if base == "" {
		return p
	}
	return strings.TrimPrefix(p, base+"/")
}
