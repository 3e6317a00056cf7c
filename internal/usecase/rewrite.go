package usecase

import (
	"errors"
	"fmt"
	"path"

	"github.com/rs/zerolog/log"

	"relocate/internal/adapter/jsparse"
	"relocate/internal/adapter/textedit"
	"relocate/internal/domain"
	"relocate/internal/port"
)

// ErrParse wraps a chunk that could not be parsed.
var ErrParse = errors.New("cannot parse chunk")

// RewriteResult is the outcome of rewriting one chunk.
type RewriteResult struct {
	Code   string
	Map    *domain.SourceMap
	Edits  int
	Parsed bool
}

// Rewriter rewrites vendored module specifiers inside one chunk so they
// resolve from the chunk's new location.
type Rewriter struct {
	locator    port.SpecifierLocator
	renamer    port.Renamer
	sourceMaps bool
}

// NewRewriter creates a rewriter. A nil locator uses the JS parser.
func NewRewriter(locator port.SpecifierLocator, renamer port.Renamer, sourceMaps bool) *Rewriter {
	if locator == nil {
		locator = jsparse.NewLocator()
	}
	return &Rewriter{
		locator:    locator,
		renamer:    renamer,
		sourceMaps: sourceMaps,
	}
}

// Rewrite edits the specifiers of code, which lives at originalPath in the
// bundle and is moving to renamedPath. Chunks whose imports never mention
// the vendor marker are returned untouched without being parsed.
func (r *Rewriter) Rewrite(originalPath, renamedPath, code string, imports []string) (*RewriteResult, error) {
	result := &RewriteResult{Code: code}
	if !anyMarker(imports) {
		return result, nil
	}

	refs, err := r.locator.Locate(code)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrParse, originalPath, err)
	}
	result.Parsed = true

	editor := textedit.New(code)
	fromDir := path.Dir(originalPath)
	toDir := path.Dir(renamedPath)

	for _, ref := range refs {
		if !domain.HasMarker(ref.Value) {
			continue
		}

		// resolve against the chunk's original location, then rename the
		// target exactly as its bundle key is renamed
		bundlePath := r.renamer.Rename(path.Join(fromDir, ref.Value))
		specifier := relativeSpecifier(relativePath(toDir, bundlePath))

		if err := editor.Overwrite(ref.Start, ref.End, jsparse.Quote(specifier, code[ref.Start])); err != nil {
			return nil, fmt.Errorf("rewrite %s: %w", originalPath, err)
		}
		log.Debug().
			Str("chunk", originalPath).
			Str("from", ref.Value).
			Str("to", specifier).
			Msg("rewrote specifier")
	}

	result.Edits = editor.Edits()
	if result.Edits == 0 {
		return result, nil
	}

	result.Code = editor.String()
	if r.sourceMaps {
		result.Map = editor.GenerateMap(textedit.MapOptions{
			File:           path.Base(renamedPath),
			Source:         relativePath(toDir, originalPath),
			IncludeContent: true,
		})
	}
	return result, nil
}

func anyMarker(list []string) bool {
	for _, s := range list {
		if domain.HasMarker(s) {
			return true
		}
	}
	return false
}
