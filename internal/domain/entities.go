package domain

import (
	"strings"
	"time"
)

// VendorMarker is the substring that flags an output path as vendored.
// It is matched anywhere in a string, not on segment boundaries.
const VendorMarker = "node_modules"

// DefaultLabel replaces VendorMarker when no replacement is configured.
const DefaultLabel = "external"

// HasMarker reports whether s contains VendorMarker.
func HasMarker(s string) bool {
	return strings.Contains(s, VendorMarker)
}

// Entry is one output file of a bundle. It is either an *Asset or a *Chunk.
type Entry interface {
	Name() string
	SetName(fileName string)
	isEntry()
}

type Asset struct {
	FileName string
	Source   []byte
}

func (a *Asset) Name() string            { return a.FileName }
func (a *Asset) SetName(fileName string) { a.FileName = fileName }
func (*Asset) isEntry()                  {}

type Chunk struct {
	FileName       string
	Code           string
	Imports        []string
	DynamicImports []string
	Map            *SourceMap
}

func (c *Chunk) Name() string            { return c.FileName }
func (c *Chunk) SetName(fileName string) { c.FileName = fileName }
func (*Chunk) isEntry()                  {}

// SourceMap is a version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// SpecifierReference locates a module specifier literal inside chunk text.
// Start and End are byte offsets; the span includes the quotes.
type SpecifierReference struct {
	Start int
	End   int
	Value string
}

// Rename is one committed key change.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PassResult summarises a single relocation pass.
type PassResult struct {
	Renamed    []Rename `json:"renamed"`
	Rewritten  []string `json:"rewritten"`
	Specifiers int      `json:"specifiers"`
	Parsed     int      `json:"parsed"`
}

// Changed reports whether the pass touched the bundle at all.
func (r *PassResult) Changed() bool {
	return len(r.Renamed) > 0 || len(r.Rewritten) > 0
}

// RunRecord is a ledger row describing an applied pass.
type RunRecord struct {
	ID        string        `json:"id"`
	Root      string        `json:"root"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run"`
	Result    PassResult    `json:"result"`
}
