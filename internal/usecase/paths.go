package usecase

import (
	"path"
	"strings"
)

// relativePath returns the POSIX relative path from directory from to
// target. Both are bundle paths; a leading ".." cannot climb above the
// bundle root.
func relativePath(from, target string) string {
	f := splitPath(from)
	t := splitPath(target)

	i := 0
	for i < len(f) && i < len(t) && f[i] == t[i] {
		i++
	}

	parts := make([]string, 0, len(f)-i+len(t)-i)
	for range f[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, t[i:]...)
	return strings.Join(parts, "/")
}

func splitPath(p string) []string {
	c := path.Clean("/" + p)
	if c == "/" {
		return nil
	}
	return strings.Split(c[1:], "/")
}

// relativeSpecifier makes rel usable as a module specifier for a file:
// anything not already starting with ./ or ../ would be read as a package
// name.
func relativeSpecifier(rel string) string {
	if strings.HasPrefix(rel, "./") || strings.HasPrefix(rel, "../") {
		return rel
	}
	return "./" + rel
}
