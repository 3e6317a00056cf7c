// Package fs reads an output directory into a bundle and writes a mutated
// bundle back to disk.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"relocate/internal/adapter/jsparse"
	"relocate/internal/adapter/metafile"
	"relocate/internal/domain"
	"relocate/internal/port"
)

const mapSuffix = ".map"

// Loader builds a bundle from the files under an output directory.
type Loader struct {
	walker    port.FileWalker
	chunkExts map[string]bool
	locator   *jsparse.Locator
	chunks    map[string]metafile.ChunkImports
}

// NewLoader creates a loader. Files whose extension is in chunkExts become
// chunks; everything else is an asset.
func NewLoader(walker port.FileWalker, chunkExts []string) *Loader {
	exts := make(map[string]bool, len(chunkExts))
	for _, ext := range chunkExts {
		exts[strings.ToLower(ext)] = true
	}
	return &Loader{
		walker:    walker,
		chunkExts: exts,
		locator:   jsparse.NewLocator(),
	}
}

// WithMetafile takes chunk imports from an esbuild metafile instead of
// scanning chunk code. Chunks the metafile does not list are still scanned.
func (l *Loader) WithMetafile(m *metafile.Metafile) *Loader {
	l.chunks = m.Chunks()
	return l
}

// Load reads root into a bundle keyed by slash-separated relative path.
func (l *Loader) Load(ctx context.Context, root string, progress port.ProgressFunc) (*domain.Bundle, error) {
	files, err := l.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk output directory: %w", err)
	}

	isChunk := make(map[string]bool)
	for _, f := range files {
		if l.chunkExts[strings.ToLower(path.Ext(f.Rel))] {
			isChunk[f.Rel] = true
		}
	}

	b := domain.NewBundle()
	maps := make(map[string]port.FileInfo)
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if owner := strings.TrimSuffix(f.Rel, mapSuffix); owner != f.Rel && isChunk[owner] {
			maps[owner] = f
		} else {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", f.Rel, err)
			}
			if isChunk[f.Rel] {
				chunk, err := l.chunk(f.Rel, string(data))
				if err != nil {
					return nil, err
				}
				b.Set(f.Rel, chunk)
			} else {
				b.Set(f.Rel, &domain.Asset{FileName: f.Rel, Source: data})
			}
		}

		if progress != nil {
			progress(i+1, len(files), f.Rel)
		}
	}

	for owner, f := range maps {
		sm, err := readMap(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source map %s: %w", f.Rel, err)
		}
		if e, ok := b.Get(owner); ok {
			if c, ok := e.(*domain.Chunk); ok {
				c.Map = sm
			}
		}
	}

	log.Debug().Str("root", root).Int("entries", b.Len()).Int("maps", len(maps)).Msg("bundle loaded")
	return b, nil
}

func (l *Loader) chunk(rel, code string) (*domain.Chunk, error) {
	c := &domain.Chunk{FileName: rel, Code: code}
	if ci, ok := l.chunks[rel]; ok {
		c.Imports = ci.Imports
		c.DynamicImports = ci.DynamicImports
		return c, nil
	}

	imports, err := l.locator.Imports(rel, code)
	if err != nil {
		return nil, fmt.Errorf("failed to scan imports of %s: %w", rel, err)
	}
	c.Imports = imports
	return c, nil
}

func readMap(filePath string) (*domain.SourceMap, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var sm domain.SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, err
	}
	return &sm, nil
}
