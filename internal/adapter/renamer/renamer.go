// Package renamer decides where a vendored output path moves to.
package renamer

import (
	"strings"

	"relocate/internal/domain"
)

// Label replaces every occurrence of the vendor marker with a fixed label.
type Label struct {
	label string
}

func NewLabel(label string) *Label {
	if label == "" {
		label = domain.DefaultLabel
	}
	return &Label{label: label}
}

func (l *Label) Rename(path string) string {
	return strings.ReplaceAll(path, domain.VendorMarker, l.label)
}

// Label returns the replacement label.
func (l *Label) Label() string {
	return l.label
}

// Func adapts a caller-supplied path function. The function gets full
// control over the destination and must be pure.
type Func func(path string) string

func (f Func) Rename(path string) string {
	return f(path)
}
