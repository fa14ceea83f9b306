// Package codegen writes a bundle as a JavaScript source file that fills the
// runtime's built-in file table.
package codegen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lexandro/sitebundle/bundle"
)

// MappingIdentifier is the global file table the generated code assigns into.
const MappingIdentifier = "Sk.builtinFiles.files"

// Write emits one assignment line per bundle entry, in bundle order:
//
//	Sk.builtinFiles.files["path"] = "content";
func Write(w io.Writer, b *bundle.Bundle) error {
	bw := bufio.NewWriter(w)
	for _, entry := range b.Entries() {
		if _, err := fmt.Fprintf(bw, "%s[%s] = %s;\n", MappingIdentifier, Quote(entry.Path), Quote(entry.Content)); err != nil {
			return fmt.Errorf("writing entry %s: %w", entry.Path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}

// WriteFile writes the bundle to outputPath, creating its directory if needed.
// The file is written to a temp file in the same directory and renamed into place,
// so a failed run leaves any previous output untouched.
func WriteFile(outputPath string, b *bundle.Bundle) error {
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", outputDir, err)
	}

	tmpFile, err := os.CreateTemp(outputDir, "."+filepath.Base(outputPath)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", outputDir, err)
	}
	tmpPath := tmpFile.Name()

	if err := Write(tmpFile, b); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	// CreateTemp creates files with mode 0600.
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting mode on %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, outputPath, err)
	}
	return nil
}
