package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// IgnoreFileName is the optional gitignore-syntax file read from the scan root.
const IgnoreFileName = ".bundleignore"

// Matcher determines whether a path under the scan root is excluded from the bundle.
// It combines .bundleignore rules with custom CLI patterns. With neither present it
// excludes nothing.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore()/ShouldIgnoreDir() acquire a read lock.
type Matcher struct {
	mu             sync.RWMutex
	rootDir        string
	bundleIgnore   gitignore.GitIgnore
	customPatterns []string
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir        string
	CustomPatterns []string // doublestar globs, matched against the relative path and the base name
}

// NewMatcher creates a matcher for the given root, loading .bundleignore if present.
func NewMatcher(options MatcherOptions) *Matcher {
	patterns := make([]string, 0, len(options.CustomPatterns))
	for _, p := range options.CustomPatterns {
		patterns = append(patterns, filepath.ToSlash(p))
	}

	return &Matcher{
		rootDir:        options.RootDir,
		bundleIgnore:   loadIgnoreFile(filepath.Join(options.RootDir, IgnoreFileName), options.RootDir),
		customPatterns: patterns,
	}
}

// ShouldIgnore returns true if the file at absolutePath should be excluded.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	return m.shouldIgnore(absolutePath, false)
}

// ShouldIgnoreDir returns true if the directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	return m.shouldIgnore(absolutePath, true)
}

func (m *Matcher) shouldIgnore(absolutePath string, isDir bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return false
	}
	relativePath = filepath.ToSlash(relativePath)
	if relativePath == "." {
		return false
	}

	if m.bundleIgnore != nil {
		match := m.bundleIgnore.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// matchesCustomPatterns checks the relative path and its base name against the CLI patterns.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Reload re-reads .bundleignore from disk.
// Used when the watcher detects a change to it.
func (m *Matcher) Reload() {
	newIgnore := loadIgnoreFile(filepath.Join(m.rootDir, IgnoreFileName), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundleIgnore = newIgnore
}

// loadIgnoreFile parses an ignore file, returning nil if it cannot be opened.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
