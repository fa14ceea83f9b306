package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/lexandro/sitebundle/bundle"
	"github.com/lexandro/sitebundle/codegen"
	"github.com/lexandro/sitebundle/language"
	"github.com/lexandro/sitebundle/scanner"
)

// bundleOptions names the inputs of one bundling run.
type bundleOptions struct {
	RootDir    string
	OutputPath string
	Skip       scanner.SkipChecker // optional exclusions, nil excludes nothing
}

// bundleResult describes a completed run.
type bundleResult struct {
	Bundle     *bundle.Bundle
	OutputPath string
	TotalSize  int64
	Skipped    int
	Duration   time.Duration
}

// performBundling scans the root, filters by extension, reads every accepted file
// and writes the generated output. Any error aborts the run before the output is
// replaced.
func performBundling(opts bundleOptions, logger *slog.Logger) (*bundleResult, error) {
	start := time.Now()
	result := &bundleResult{
		Bundle:     bundle.New(),
		OutputPath: opts.OutputPath,
	}

	for file, err := range scanner.Walk(opts.RootDir, opts.Skip) {
		if err != nil {
			return nil, err
		}
		displayPath := filepath.Join(opts.RootDir, filepath.FromSlash(file.RelativePath))

		if !language.IsAllowed(file.RelativePath) {
			logger.Info("skipping file", "path", displayPath)
			result.Skipped++
			continue
		}

		content, err := readTextFile(file.Path, file.RelativePath)
		if err != nil {
			return nil, err
		}
		if replaced := result.Bundle.Add(file.RelativePath, content); replaced {
			logger.Warn("duplicate path, keeping later content", "path", file.RelativePath)
		}
		logger.Info("adding file",
			"path", displayPath,
			"language", language.DetectLanguage(file.RelativePath),
		)
	}

	if err := codegen.WriteFile(opts.OutputPath, result.Bundle); err != nil {
		return nil, err
	}

	result.TotalSize = result.Bundle.TotalSize()
	result.Duration = time.Since(start)
	return result, nil
}

// readTextFile reads the whole file and checks that it, and its bundle key, are valid UTF-8.
func readTextFile(absolutePath string, relativePath string) (string, error) {
	if !utf8.ValidString(relativePath) {
		return "", &bundle.DecodeError{Path: relativePath, Offset: invalidOffset([]byte(relativePath))}
	}

	data, err := os.ReadFile(absolutePath)
	if err != nil {
		return "", fmt.Errorf("reading file %s: %w", relativePath, err)
	}
	if !utf8.Valid(data) {
		return "", &bundle.DecodeError{
			Path:   relativePath,
			Offset: invalidOffset(data),
			Binary: language.IsBinaryContent(data),
		}
	}
	return string(data), nil
}

// invalidOffset returns the byte offset of the first invalid UTF-8 sequence in data.
func invalidOffset(data []byte) int {
	offset := 0
	for offset < len(data) {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size <= 1 {
			return offset
		}
		offset += size
	}
	return offset
}
