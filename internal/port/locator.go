package port

import "relocate/internal/domain"

// SpecifierLocator finds require() and import declaration specifier
// literals in emitted module code.
type SpecifierLocator interface {
	// Locate returns every qualifying literal in source order.
	// A syntax error is returned as-is.
	Locate(code string) ([]domain.SpecifierReference, error)
}
