package port

// Renamer maps an output path containing the vendor marker to its
// destination. Implementations must be pure.
type Renamer interface {
	Rename(path string) string
}
