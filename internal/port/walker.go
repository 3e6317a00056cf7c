package port

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

// FileInfo describes a file found under an output directory. Rel is the
// slash-separated path relative to the walked root.
type FileInfo struct {
	Path    string
	Rel     string
	ModTime int64
	Size    int64
}
