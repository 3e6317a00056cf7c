package usecase

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"relocate/internal/adapter/renamer"
	"relocate/internal/domain"
	"relocate/internal/port"
)

// ErrKeyCollision is returned when two entries would end up under the same
// bundle key.
var ErrKeyCollision = errors.New("renamed bundle keys collide")

// Options configures a relocation pass.
type Options struct {
	// Replacement substitutes the vendor marker in relocated paths.
	Replacement string
	// RenameFunc, when set, takes full control of relocated paths and
	// Replacement is ignored. It must be pure.
	RenameFunc func(path string) string
	// EmitSourceMaps attaches a regenerated map to every edited chunk.
	EmitSourceMaps bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Replacement:    domain.DefaultLabel,
		EmitSourceMaps: true,
	}
}

// Renamer returns the path renamer described by the options.
func (o Options) Renamer() port.Renamer {
	if o.RenameFunc != nil {
		return renamer.Func(o.RenameFunc)
	}
	return renamer.NewLabel(o.Replacement)
}

// Mutator relocates vendored entries of a bundle and rewrites the chunks
// that import them.
type Mutator struct {
	renamer  port.Renamer
	rewriter *Rewriter
}

// NewMutator creates a mutator. A nil locator uses the JS parser.
func NewMutator(opts Options, locator port.SpecifierLocator) *Mutator {
	rn := opts.Renamer()
	return &Mutator{
		renamer:  rn,
		rewriter: NewRewriter(locator, rn, opts.EmitSourceMaps),
	}
}

func (m *Mutator) Renamer() port.Renamer {
	return m.renamer
}

// pending is the staged decision for one entry.
type pending struct {
	key    string
	entry  domain.Entry
	newKey string

	rewrite        *RewriteResult
	imports        []string
	dynamicImports []string
	retarget       bool
}

// Mutate runs one pass over b. Every entry is decided against the original
// key space first; content changes and key renames are committed only after
// all entries succeeded, so a failure leaves b untouched.
func (m *Mutator) Mutate(b *domain.Bundle) (*domain.PassResult, error) {
	result := &domain.PassResult{}
	plan := make([]pending, 0, b.Len())

	for _, ke := range b.Entries() {
		p, err := m.decide(ke.Key, ke.Entry)
		if err != nil {
			return nil, err
		}
		if p.rewrite != nil && p.rewrite.Parsed {
			result.Parsed++
		}
		plan = append(plan, p)
	}

	if err := checkCollisions(plan); err != nil {
		return nil, err
	}

	m.commit(b, plan, result)

	log.Info().
		Int("entries", b.Len()).
		Int("renamed", len(result.Renamed)).
		Int("rewritten", len(result.Rewritten)).
		Int("specifiers", result.Specifiers).
		Msg("relocation pass complete")
	return result, nil
}

func (m *Mutator) decide(key string, entry domain.Entry) (pending, error) {
	p := pending{key: key, entry: entry}

	// The destination is computed from the renamer, never looked up in
	// the bundle, so it does not depend on which entries came first.
	finalName := entry.Name()
	if finalName == "" {
		finalName = key
	}
	if domain.HasMarker(key) {
		if renamed := m.renamer.Rename(key); renamed != key {
			p.newKey = renamed
			finalName = renamed
		}
	}

	chunk, ok := entry.(*domain.Chunk)
	if !ok {
		return p, nil
	}

	rw, err := m.rewriter.Rewrite(key, finalName, chunk.Code, chunk.Imports)
	if err != nil {
		return p, err
	}
	p.rewrite = rw

	if anyMarker(chunk.Imports) || anyMarker(chunk.DynamicImports) {
		p.retarget = true
		p.imports = m.renameAll(chunk.Imports)
		p.dynamicImports = m.renameAll(chunk.DynamicImports)
	}

	log.Debug().
		Str("key", key).
		Str("to", p.newKey).
		Bool("parsed", rw.Parsed).
		Int("edits", rw.Edits).
		Msg("entry decided")
	return p, nil
}

func (m *Mutator) renameAll(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		if domain.HasMarker(s) {
			s = m.renamer.Rename(s)
		}
		out[i] = s
	}
	return out
}

func checkCollisions(plan []pending) error {
	owner := make(map[string]string, len(plan))
	for _, p := range plan {
		final := p.key
		if p.newKey != "" {
			final = p.newKey
		}
		if prev, ok := owner[final]; ok {
			return fmt.Errorf("%w: %s and %s both map to %s", ErrKeyCollision, prev, p.key, final)
		}
		owner[final] = p.key
	}
	return nil
}

func (m *Mutator) commit(b *domain.Bundle, plan []pending, result *domain.PassResult) {
	for _, p := range plan {
		chunk, ok := p.entry.(*domain.Chunk)
		if !ok {
			continue
		}
		if p.retarget {
			chunk.Imports = p.imports
			chunk.DynamicImports = p.dynamicImports
		}
		if p.rewrite == nil || p.rewrite.Edits == 0 {
			continue
		}
		chunk.Code = p.rewrite.Code
		if p.rewrite.Map != nil {
			chunk.Map = p.rewrite.Map
		}
		result.Specifiers += p.rewrite.Edits

		final := p.key
		if p.newKey != "" {
			final = p.newKey
		}
		result.Rewritten = append(result.Rewritten, final)
	}

	// Remove every old key before inserting any new one: a new key may
	// equal an old key that is itself moving away.
	var moved []pending
	for _, p := range plan {
		if p.newKey == "" {
			continue
		}
		b.Delete(p.key)
		moved = append(moved, p)
	}
	for _, p := range moved {
		p.entry.SetName(p.newKey)
		b.Set(p.newKey, p.entry)
		result.Renamed = append(result.Renamed, domain.Rename{From: p.key, To: p.newKey})
	}
}
