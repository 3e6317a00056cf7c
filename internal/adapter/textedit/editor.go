// Package textedit applies range overwrites to a source text while keeping
// track of where every output byte came from, so a source map can be
// generated for the result.
package textedit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"relocate/internal/domain"
)

var (
	ErrRange   = errors.New("textedit: range out of bounds")
	ErrOverlap = errors.New("textedit: overlapping edit")
)

type edit struct {
	start   int
	end     int
	content string
}

// Editor records overwrites against an immutable original. Edits are
// applied lazily by String and GenerateMap.
type Editor struct {
	original string
	edits    []edit
}

func New(original string) *Editor {
	return &Editor{original: original}
}

// Overwrite replaces original[start:end] with content. Ranges are byte
// offsets into the original and must not overlap earlier edits.
func (e *Editor) Overwrite(start, end int, content string) error {
	if start < 0 || end > len(e.original) || start >= end {
		return fmt.Errorf("%w: [%d,%d) of %d", ErrRange, start, end, len(e.original))
	}

	i := sort.Search(len(e.edits), func(i int) bool { return e.edits[i].start >= start })
	if i > 0 && e.edits[i-1].end > start {
		return fmt.Errorf("%w: [%d,%d)", ErrOverlap, start, end)
	}
	if i < len(e.edits) && e.edits[i].start < end {
		return fmt.Errorf("%w: [%d,%d)", ErrOverlap, start, end)
	}

	e.edits = append(e.edits, edit{})
	copy(e.edits[i+1:], e.edits[i:])
	e.edits[i] = edit{start: start, end: end, content: content}
	return nil
}

// Edits returns the number of recorded overwrites.
func (e *Editor) Edits() int {
	return len(e.edits)
}

func (e *Editor) Original() string {
	return e.original
}

func (e *Editor) String() string {
	if len(e.edits) == 0 {
		return e.original
	}

	var sb strings.Builder
	pos := 0
	for _, ed := range e.edits {
		sb.WriteString(e.original[pos:ed.start])
		sb.WriteString(ed.content)
		pos = ed.end
	}
	sb.WriteString(e.original[pos:])
	return sb.String()
}

// MapOptions controls GenerateMap output.
type MapOptions struct {
	File           string
	Source         string
	IncludeContent bool
}

// GenerateMap builds a v3 source map from the edited text back to the
// original. Unedited runs get a segment at their start and at every line
// start; each overwrite gets one segment at its start. Columns count UTF-16
// code units.
func (e *Editor) GenerateMap(opts MapOptions) *domain.SourceMap {
	m := &mapper{original: e.original}

	pos := 0
	for _, ed := range e.edits {
		m.unedited(pos, ed.start)
		m.edited(ed)
		pos = ed.end
	}
	m.unedited(pos, len(e.original))

	sm := &domain.SourceMap{
		Version:  3,
		File:     opts.File,
		Sources:  []string{opts.Source},
		Names:    []string{},
		Mappings: m.encode(),
	}
	if opts.IncludeContent {
		sm.SourcesContent = []string{e.original}
	}
	return sm
}

type segment struct {
	genCol  int
	srcLine int
	srcCol  int
}

type mapper struct {
	original string

	lines   [][]segment
	genLine int
	genCol  int
	srcLine int
	srcCol  int
}

func (m *mapper) add() {
	for len(m.lines) <= m.genLine {
		m.lines = append(m.lines, nil)
	}
	m.lines[m.genLine] = append(m.lines[m.genLine], segment{genCol: m.genCol, srcLine: m.srcLine, srcCol: m.srcCol})
}

func (m *mapper) unedited(start, end int) {
	first := true
	for i := start; i < end; {
		if first {
			m.add()
		}
		r, size := utf8.DecodeRuneInString(m.original[i:])
		if r == '\n' {
			m.srcLine++
			m.srcCol = 0
			m.genLine++
			m.genCol = 0
			first = true
		} else {
			w := utf16Len(r)
			m.srcCol += w
			m.genCol += w
			first = false
		}
		i += size
	}
}

func (m *mapper) edited(ed edit) {
	if ed.content != "" {
		m.add()
	}
	m.genLine, m.genCol = advance(ed.content, m.genLine, m.genCol)
	m.srcLine, m.srcCol = advance(m.original[ed.start:ed.end], m.srcLine, m.srcCol)
}

func (m *mapper) encode() string {
	var sb strings.Builder
	prevSrcLine, prevSrcCol := 0, 0

	for line, segs := range m.lines {
		if line > 0 {
			sb.WriteByte(';')
		}
		prevGenCol := 0
		for i, s := range segs {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeVLQ(&sb, s.genCol-prevGenCol)
			writeVLQ(&sb, 0) // single source
			writeVLQ(&sb, s.srcLine-prevSrcLine)
			writeVLQ(&sb, s.srcCol-prevSrcCol)
			prevGenCol = s.genCol
			prevSrcLine = s.srcLine
			prevSrcCol = s.srcCol
		}
	}
	return sb.String()
}

func advance(s string, line, col int) (int, int) {
	for _, r := range s {
		if r == '\n' {
			line++
			col = 0
			continue
		}
		col += utf16Len(r)
	}
	return line, col
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
