// Package bundle holds the in-memory mapping of relative paths to file contents
// collected during a single run.
package bundle

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry is one bundled file.
type Entry struct {
	Path    string // Path relative to the scan root (forward slashes)
	Content string // Full UTF-8 text content
}

// Bundle is an ordered path -> content accumulator. Entries keep the order in which
// their path was first added; adding a path again replaces its content in place.
// Not safe for concurrent use.
type Bundle struct {
	positions map[string]int
	entries   []Entry
}

// New creates an empty bundle.
func New() *Bundle {
	return &Bundle{
		positions: make(map[string]int),
		entries:   make([]Entry, 0),
	}
}

// Add adds a file to the bundle. A duplicate path is last-write-wins: the content
// is replaced and the entry keeps its original position.
// It reports whether an existing entry was replaced.
func (b *Bundle) Add(path string, content string) bool {
	if idx, exists := b.positions[path]; exists {
		b.entries[idx].Content = content
		return true
	}
	b.positions[path] = len(b.entries)
	b.entries = append(b.entries, Entry{Path: path, Content: content})
	return false
}

// Get returns the content stored for path.
func (b *Bundle) Get(path string) (string, bool) {
	idx, ok := b.positions[path]
	if !ok {
		return "", false
	}
	return b.entries[idx].Content, true
}

// Entries returns the entries in insertion order. The slice must not be modified.
func (b *Bundle) Entries() []Entry {
	return b.entries
}

// Len returns the number of entries.
func (b *Bundle) Len() int {
	return len(b.entries)
}

// TotalSize returns the sum of all content lengths in bytes.
func (b *Bundle) TotalSize() int64 {
	var total int64
	for _, e := range b.entries {
		total += int64(len(e.Content))
	}
	return total
}

// Match returns the entries whose path matches a doublestar glob pattern, in
// insertion order.
func (b *Bundle) Match(pattern string) ([]Entry, error) {
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var matches []Entry
	for _, e := range b.entries {
		matched, err := doublestar.Match(pattern, e.Path)
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", e.Path, err)
		}
		if matched {
			matches = append(matches, e)
		}
	}
	return matches, nil
}
