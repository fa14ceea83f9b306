// Package scanner discovers the regular files under a root directory.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/lexandro/sitebundle/bundle"
)

// File is a regular file found by Walk.
type File struct {
	Path         string // Absolute file path
	RelativePath string // Path relative to the root (forward slashes)
}

// SkipChecker excludes paths from a walk. The watcher's IgnoreChecker has the same shape.
type SkipChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Walk returns a lazy sequence of every regular file under rootDir, in the order
// filepath.WalkDir visits them. Directories are not yielded. Symlinks to files are
// yielded under the link's own path; symlinks to directories are not followed, so
// link cycles cannot occur. skip may be nil.
//
// If rootDir is missing or not a directory the sequence yields a single
// *bundle.DirectoryNotFoundError. Any other walk error is yielded and ends the
// sequence. The sequence walks the tree again each time it is ranged over.
func Walk(rootDir string, skip SkipChecker) iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		absRoot, err := filepath.Abs(rootDir)
		if err != nil {
			yield(File{}, fmt.Errorf("resolving root %s: %w", rootDir, err))
			return
		}
		if err := checkRoot(absRoot); err != nil {
			yield(File{}, err)
			return
		}

		stopped := errors.New("walk stopped")
		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("walking %s: %w", path, err)
			}
			if d.IsDir() {
				if path != absRoot && skip != nil && skip.ShouldIgnoreDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isFileEntry(path, d) {
				return nil
			}
			if skip != nil && skip.ShouldIgnore(path) {
				return nil
			}

			relPath, err := filepath.Rel(absRoot, path)
			if err != nil {
				return fmt.Errorf("relativizing %s: %w", path, err)
			}
			if !yield(File{Path: path, RelativePath: filepath.ToSlash(relPath)}, nil) {
				return stopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, stopped) {
			yield(File{}, err)
		}
	}
}

// checkRoot returns a *bundle.DirectoryNotFoundError unless root is an existing directory.
func checkRoot(root string) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return &bundle.DirectoryNotFoundError{Path: root, Err: err}
	}
	if err != nil {
		return fmt.Errorf("checking root %s: %w", root, err)
	}
	if !info.IsDir() {
		return &bundle.DirectoryNotFoundError{Path: root}
	}
	return nil
}

// isFileEntry reports whether d should be yielded as a file. A dangling symlink counts
// as a file so that reading it fails loudly instead of it vanishing from the bundle.
func isFileEntry(path string, d fs.DirEntry) bool {
	switch {
	case d.Type().IsRegular():
		return true
	case d.Type()&fs.ModeSymlink != 0:
		info, err := os.Stat(path)
		if err != nil {
			return true
		}
		return info.Mode().IsRegular()
	default:
		return false
	}
}
