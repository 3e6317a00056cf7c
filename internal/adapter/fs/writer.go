package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"relocate/internal/domain"
	"relocate/internal/port"
)

// Writer applies the outcome of a pass to an output directory.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write moves renamed files, rewrites changed chunks together with their
// maps, and prunes directories the moves left empty.
func (w *Writer) Write(ctx context.Context, root string, b *domain.Bundle, result *domain.PassResult, progress port.ProgressFunc) error {
	total := len(result.Renamed) + len(result.Rewritten)
	done := 0
	step := func(name string) {
		done++
		if progress != nil {
			progress(done, total, name)
		}
	}

	sources := make(map[string]bool, len(result.Renamed))
	for _, r := range result.Renamed {
		sources[r.From] = true
	}
	for _, r := range result.Renamed {
		if _, err := os.Stat(osPath(root, r.To)); err == nil && !sources[r.To] {
			return fmt.Errorf("refusing to overwrite %s", r.To)
		}
	}

	// Renames may chain (a -> b, b -> c), so every source is parked under a
	// temporary name before any destination is written.
	parked := make([]string, len(result.Renamed))
	for i, r := range result.Renamed {
		if err := ctx.Err(); err != nil {
			return err
		}
		parked[i] = fmt.Sprintf("%s.relocating-%d", r.From, i)
		if err := move(osPath(root, r.From), osPath(root, parked[i])); err != nil {
			return err
		}
		if _, err := os.Stat(osPath(root, r.From+mapSuffix)); err == nil {
			if err := move(osPath(root, r.From+mapSuffix), osPath(root, parked[i]+mapSuffix)); err != nil {
				return err
			}
		}
	}

	for i, r := range result.Renamed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := move(osPath(root, parked[i]), osPath(root, r.To)); err != nil {
			return err
		}
		if _, err := os.Stat(osPath(root, parked[i]+mapSuffix)); err == nil {
			if err := move(osPath(root, parked[i]+mapSuffix), osPath(root, r.To+mapSuffix)); err != nil {
				return err
			}
		}
		log.Debug().Str("from", r.From).Str("to", r.To).Msg("moved")
		step(r.To)
	}

	for _, key := range result.Rewritten {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, ok := b.Get(key)
		if !ok {
			return fmt.Errorf("rewritten chunk %s missing from bundle", key)
		}
		c, ok := e.(*domain.Chunk)
		if !ok {
			return fmt.Errorf("rewritten entry %s is not a chunk", key)
		}
		if err := os.WriteFile(osPath(root, key), []byte(c.Code), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		if c.Map != nil {
			data, err := json.Marshal(c.Map)
			if err != nil {
				return fmt.Errorf("failed to encode map of %s: %w", key, err)
			}
			if err := os.WriteFile(osPath(root, key+mapSuffix), data, 0644); err != nil {
				return fmt.Errorf("failed to write map of %s: %w", key, err)
			}
		}
		step(key)
	}

	for _, r := range result.Renamed {
		pruneEmpty(root, filepath.Dir(osPath(root, r.From)))
	}
	return nil
}

func osPath(root, key string) string {
	return filepath.Join(root, filepath.FromSlash(key))
}

func move(from, to string) error {
	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", to, err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to move %s: %w", from, err)
	}
	return nil
}

// pruneEmpty removes dir and its parents while they are empty, stopping
// at root.
func pruneEmpty(root, dir string) {
	root = filepath.Clean(root)
	for dir != root && len(dir) > len(root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
