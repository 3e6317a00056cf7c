// Package jsparse locates module specifier literals in emitted
// ECMAScript module code.
package jsparse

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"unsafe"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"relocate/internal/domain"
)

const requireName = "require"

// ErrUnlocatable means the parser returned a literal that could not be
// mapped back to a source offset.
var ErrUnlocatable = errors.New("jsparse: literal offset unavailable")

// Locator implements port.SpecifierLocator.
type Locator struct{}

func NewLocator() *Locator {
	return &Locator{}
}

// Locate parses code as a module and returns the specifier literals of
// require calls and import declarations, ordered by offset.
func (l *Locator) Locate(code string) ([]domain.SpecifierReference, error) {
	// One spare byte of capacity lets the parser's NUL terminator live in
	// buf itself, so token slices point into buf.
	buf := make([]byte, len(code), len(code)+1)
	copy(buf, code)

	ast, err := js.Parse(parse.NewInputBytes(buf), js.Options{})
	if err != nil {
		return nil, err
	}

	var refs []domain.SpecifierReference
	var locErr error
	Walk(&ast.BlockStmt, isCandidate, func(n js.INode) {
		if locErr != nil {
			return
		}
		raw := specifierLiteral(n)
		if raw == nil {
			return
		}
		ref, err := locate(buf, raw)
		if err != nil {
			locErr = err
			return
		}
		refs = append(refs, ref)
	})
	if locErr != nil {
		return nil, locErr
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Start < refs[j].Start })
	return refs, nil
}

// Imports returns the specifiers of code as bundle paths: relative
// specifiers are joined onto the directory of fileName, anything else is
// returned verbatim. Duplicates are dropped.
func (l *Locator) Imports(fileName, code string) ([]string, error) {
	refs, err := l.Locate(code)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(refs))
	var imports []string
	for _, ref := range refs {
		imp := ref.Value
		if strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") {
			imp = path.Join(path.Dir(fileName), imp)
		}
		if seen[imp] {
			continue
		}
		seen[imp] = true
		imports = append(imports, imp)
	}
	return imports, nil
}

func isCandidate(n js.INode) bool {
	switch n.(type) {
	case *js.CallExpr, *js.ImportStmt:
		return true
	}
	return false
}

// specifierLiteral returns the raw literal of a qualifying node, or nil.
func specifierLiteral(n js.INode) []byte {
	switch n := n.(type) {
	case *js.CallExpr:
		callee, ok := n.X.(*js.Var)
		if !ok || string(callee.Data) != requireName || len(n.Args.List) == 0 {
			return nil
		}
		arg := n.Args.List[0]
		if arg.Rest {
			return nil
		}
		lit, ok := arg.Value.(*js.LiteralExpr)
		if !ok || lit.TokenType != js.StringToken {
			return nil
		}
		return lit.Data
	case *js.ImportStmt:
		if len(n.Module) == 0 {
			return nil
		}
		return n.Module
	}
	return nil
}

// locate finds raw inside buf. Token data handed out by the lexer are
// subslices of the input buffer, so the offset is the distance between
// their first bytes. Capacities cannot be used: the lexer caps every token
// at its own length.
func locate(buf, raw []byte) (domain.SpecifierReference, error) {
	if len(raw) == 0 || len(buf) == 0 {
		return domain.SpecifierReference{}, fmt.Errorf("%w: %s", ErrUnlocatable, raw)
	}
	base := uintptr(unsafe.Pointer(&buf[0]))
	addr := uintptr(unsafe.Pointer(&raw[0]))
	if addr < base || addr-base >= uintptr(len(buf)) {
		return domain.SpecifierReference{}, fmt.Errorf("%w: %s", ErrUnlocatable, raw)
	}
	start := int(addr - base)
	end := start + len(raw)
	if end > len(buf) || string(buf[start:end]) != string(raw) {
		return domain.SpecifierReference{}, fmt.Errorf("%w: %s", ErrUnlocatable, raw)
	}

	if !isQuote(buf[start]) {
		if start == 0 || end >= len(buf) || !isQuote(buf[start-1]) || buf[end] != buf[start-1] {
			return domain.SpecifierReference{}, fmt.Errorf("%w: %s", ErrUnlocatable, raw)
		}
		start--
		end++
	}

	value, err := Unquote(string(buf[start:end]))
	if err != nil {
		return domain.SpecifierReference{}, err
	}
	return domain.SpecifierReference{Start: start, End: end, Value: value}, nil
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"'
}
