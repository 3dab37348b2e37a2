package pack

import (
	"fmt"
	"sort"
	"strings"

	"mineardmg/internal/services"
)

// PathLookup is the one-to-many mapping from content hash to pack paths.
type PathLookup struct {
	byHash map[string][]string
	byPath map[string]string
}

// NewPathLookup returns an empty lookup.
func NewPathLookup() *PathLookup {
	return &PathLookup{byHash: map[string][]string{}, byPath: map[string]string{}}
}

// Add binds path to hash. Repeating a pair is a no-op; binding a path that
// already belongs to another hash is an error.
func (l *PathLookup) Add(hash, path string) error {
	hash = strings.TrimSpace(hash)
	path = strings.TrimSpace(path)
	if hash == "" || path == "" {
		return services.Wrap(services.ErrPackaging, "package", "lookup", fmt.Sprintf("empty hash or path (%q -> %q)", hash, path), nil)
	}
	if owner, ok := l.byPath[path]; ok {
		if owner == hash {
			return nil
		}
		return services.Wrap(services.ErrPackaging, "package", "lookup", fmt.Sprintf("path %s bound to both %s and %s", path, owner, hash), nil)
	}
	l.byPath[path] = hash
	l.byHash[hash] = append(l.byHash[hash], path)
	return nil
}

// Paths returns the sorted paths bound to hash.
func (l *PathLookup) Paths(hash string) []string {
	paths := append([]string(nil), l.byHash[hash]...)
	sort.Strings(paths)
	return paths
}

// Hashes returns every distinct hash in sorted order.
func (l *PathLookup) Hashes() []string {
	hashes := make([]string, 0, len(l.byHash))
	for hash := range l.byHash {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	return hashes
}

// SortedPaths returns every path in lexicographic order.
func (l *PathLookup) SortedPaths() []string {
	paths := make([]string, 0, len(l.byPath))
	for path := range l.byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// HashFor returns the hash bound to path.
func (l *PathLookup) HashFor(path string) (string, bool) {
	hash, ok := l.byPath[path]
	return hash, ok
}

// Len returns the number of distinct paths.
func (l *PathLookup) Len() int {
	return len(l.byPath)
}
