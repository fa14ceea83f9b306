package main

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/lexandro/sitebundle/bundle"
	"github.com/lexandro/sitebundle/ignore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

var bundleLine = regexp.MustCompile(`^Sk\.builtinFiles\.files\[("(?:[^"\\]|\\.)*")\] = ("(?:[^"\\]|\\.)*");$`)

// parseOutput decodes the generated file back into ordered (path, content) pairs.
func parseOutput(t *testing.T, outputPath string) []bundle.Entry {
	t.Helper()
	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	var entries []bundle.Entry
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		m := bundleLine.FindStringSubmatch(line)
		if m == nil {
			t.Fatalf("malformed output line: %s", line)
		}
		var entry bundle.Entry
		if err := json.Unmarshal([]byte(m[1]), &entry.Path); err != nil {
			t.Fatalf("decoding path literal %s: %v", m[1], err)
		}
		if err := json.Unmarshal([]byte(m[2]), &entry.Content); err != nil {
			t.Fatalf("decoding content literal: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func testOptions(t *testing.T) bundleOptions {
	t.Helper()
	dir := t.TempDir()
	return bundleOptions{
		RootDir:    filepath.Join(dir, "website"),
		OutputPath: filepath.Join(dir, "tools", "build", "website_files.js"),
	}
}

func Test_performBundling_ExampleScenario(t *testing.T) {
	opts := testOptions(t)
	writeTree(t, opts.RootDir, map[string]string{
		"a.py":     `print("hi")`,
		"b.png":    "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR",
		"sub/c.md": "# Title",
	})

	result, err := performBundling(opts, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Bundle.Len() != 2 {
		t.Fatalf("expected 2 bundled files, got %d", result.Bundle.Len())
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped file, got %d", result.Skipped)
	}

	entries := parseOutput(t, opts.OutputPath)
	got := make(map[string]string)
	for _, e := range entries {
		got[e.Path] = e.Content
	}
	if len(entries) != 2 || got["a.py"] != `print("hi")` || got["sub/c.md"] != "# Title" {
		t.Errorf("unexpected output entries: %+v", entries)
	}

	// Output order follows bundle (walk) order.
	for i, e := range result.Bundle.Entries() {
		if entries[i].Path != e.Path {
			t.Errorf("entry[%d]: output has %s, bundle has %s", i, entries[i].Path, e.Path)
		}
	}

	data, _ := os.ReadFile(opts.OutputPath)
	if !strings.Contains(string(data), `Sk.builtinFiles.files["a.py"] = "print(\"hi\")";`) {
		t.Errorf("expected escaped a.py line, got:\n%s", data)
	}
}

func Test_performBundling_FilterCorrectness(t *testing.T) {
	opts := testOptions(t)
	writeTree(t, opts.RootDir, map[string]string{
		"index.HTML":        "<html></html>",
		"app.js":            "let x = 1;",
		"css/site.Css":      "body {}",
		"data/table.csv":    "a,b\n1,2\n",
		"data/config.json":  `{"k": "v"}`,
		"docs/notes.txt":    "notes",
		"docs/README.md":    "readme",
		"lib/mod.py":        "x = 1",
		"LICENSE":           "MIT",
		"font.woff2":        "font",
		"lib/mod.pyc":       "bytecode",
		".hidden/secret.sh": "echo",
	})

	if _, err := performBundling(opts, testLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]int)
	for _, e := range parseOutput(t, opts.OutputPath) {
		seen[e.Path]++
	}

	for _, path := range []string{"index.HTML", "app.js", "css/site.Css", "data/table.csv", "data/config.json", "docs/notes.txt", "docs/README.md", "lib/mod.py"} {
		if seen[path] != 1 {
			t.Errorf("expected %s exactly once, got %d", path, seen[path])
		}
	}
	for _, path := range []string{"LICENSE", "font.woff2", "lib/mod.pyc", ".hidden/secret.sh"} {
		if seen[path] != 0 {
			t.Errorf("expected %s to be excluded", path)
		}
	}
}

func Test_performBundling_RoundTripAndForwardSlashes(t *testing.T) {
	opts := testOptions(t)
	contents := map[string]string{
		"quotes.txt":        `He said "hi" and it's 'fine'`,
		"back/slash.txt":    `C:\Users\name\n is not a newline`,
		"multi/line/doc.md": "line one\nline two\r\n\ttabbed\n\n",
		"unicode.json":      `{"greeting": "héllo wörld 🌍", "sep": "` + "\u2028" + `"}`,
		"empty.css":         "",
	}
	writeTree(t, opts.RootDir, contents)

	if _, err := performBundling(opts, testLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := parseOutput(t, opts.OutputPath)
	if len(entries) != len(contents) {
		t.Fatalf("expected %d entries, got %d", len(contents), len(entries))
	}
	for _, e := range entries {
		if strings.Contains(e.Path, `\`) {
			t.Errorf("expected forward slashes in key, got %s", e.Path)
		}
		if want, ok := contents[e.Path]; !ok || want != e.Content {
			t.Errorf("round trip mismatch for %s: got %q, want %q", e.Path, e.Content, want)
		}
	}
}

func Test_performBundling_Idempotent(t *testing.T) {
	opts := testOptions(t)
	writeTree(t, opts.RootDir, map[string]string{
		"a.py":        "a",
		"z/b.js":      "b",
		"m/n/o/c.txt": "c",
	})

	if _, err := performBundling(opts, testLogger()); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(opts.OutputPath)

	if _, err := performBundling(opts, testLogger()); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(opts.OutputPath)

	if string(first) != string(second) {
		t.Errorf("expected identical output across runs:\n%s\n---\n%s", first, second)
	}
}

func Test_performBundling_EmptyRoot(t *testing.T) {
	opts := testOptions(t)
	if err := os.MkdirAll(opts.RootDir, 0755); err != nil {
		t.Fatal(err)
	}

	result, err := performBundling(opts, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Bundle.Len() != 0 {
		t.Errorf("expected empty bundle, got %d", result.Bundle.Len())
	}
	info, err := os.Stat(opts.OutputPath)
	if err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty output file, got %d bytes", info.Size())
	}
}

func Test_performBundling_MissingRoot(t *testing.T) {
	opts := testOptions(t)

	_, err := performBundling(opts, testLogger())

	var dnf *bundle.DirectoryNotFoundError
	if !errors.As(err, &dnf) {
		t.Fatalf("expected DirectoryNotFoundError, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Dir(opts.OutputPath)); !os.IsNotExist(statErr) {
		t.Error("expected nothing to be written for a missing root")
	}
}

func Test_performBundling_DecodeErrorIsFatal(t *testing.T) {
	opts := testOptions(t)
	writeTree(t, opts.RootDir, map[string]string{
		"good.txt": "fine",
		"bad.txt":  "ok so far \xff\xfe then garbage",
	})

	_, err := performBundling(opts, testLogger())

	var decodeErr *bundle.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Path != "bad.txt" {
		t.Errorf("expected path bad.txt, got %s", decodeErr.Path)
	}
	if decodeErr.Offset != len("ok so far ") {
		t.Errorf("expected offset %d, got %d", len("ok so far "), decodeErr.Offset)
	}
	if decodeErr.Binary {
		t.Error("expected text-like content to not be flagged binary")
	}
	if _, statErr := os.Stat(opts.OutputPath); !os.IsNotExist(statErr) {
		t.Error("expected no output file after a decode failure")
	}
}

func Test_performBundling_FailureKeepsPreviousOutput(t *testing.T) {
	opts := testOptions(t)
	writeTree(t, opts.RootDir, map[string]string{"a.py": "a"})

	if _, err := performBundling(opts, testLogger()); err != nil {
		t.Fatal(err)
	}
	previous, _ := os.ReadFile(opts.OutputPath)

	writeTree(t, opts.RootDir, map[string]string{"bin.json": "\x00\x01\x80\x81"})
	_, err := performBundling(opts, testLogger())

	var decodeErr *bundle.DecodeError
	if !errors.As(err, &decodeErr) || !decodeErr.Binary {
		t.Fatalf("expected binary DecodeError, got %v", err)
	}
	current, _ := os.ReadFile(opts.OutputPath)
	if string(previous) != string(current) {
		t.Error("expected previous output to be left untouched")
	}
}

func Test_performBundling_SkipsIgnoredPaths(t *testing.T) {
	opts := testOptions(t)
	writeTree(t, opts.RootDir, map[string]string{
		"keep.py":       "k",
		"drafts/wip.md": "w",
		"data/big.csv":  "1,2",
	})
	writeTree(t, opts.RootDir, map[string]string{ignore.IgnoreFileName: "drafts/\n"})
	opts.Skip = ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:        opts.RootDir,
		CustomPatterns: []string{"*.csv"},
	})

	result, err := performBundling(opts, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Bundle.Len() != 1 {
		t.Fatalf("expected only keep.py, got %+v", result.Bundle.Entries())
	}
	if _, ok := result.Bundle.Get("keep.py"); !ok {
		t.Error("expected keep.py in bundle")
	}
}

func Test_performBundling_DanglingSymlinkIsFatal(t *testing.T) {
	opts := testOptions(t)
	writeTree(t, opts.RootDir, map[string]string{"a.py": "a"})
	link := filepath.Join(opts.RootDir, "link.txt")
	if err := os.Symlink(filepath.Join(opts.RootDir, "missing.txt"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := performBundling(opts, testLogger())
	if err == nil {
		t.Fatal("expected error for a dangling symlink")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped fs.ErrNotExist, got %v", err)
	}
	if !strings.Contains(err.Error(), "link.txt") {
		t.Errorf("expected link path in error, got %v", err)
	}
	if _, statErr := os.Stat(opts.OutputPath); !os.IsNotExist(statErr) {
		t.Error("expected no output file after a read failure")
	}
}

func Test_performBundling_NonUTF8FileName(t *testing.T) {
	opts := testOptions(t)
	writeTree(t, opts.RootDir, map[string]string{"a.py": "a"})
	name := "bad\xff.py"
	if err := os.WriteFile(filepath.Join(opts.RootDir, name), []byte("x = 1\n"), 0644); err != nil {
		t.Skipf("file system rejects non-UTF-8 names: %v", err)
	}

	_, err := performBundling(opts, testLogger())

	var decodeErr *bundle.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Path != name {
		t.Errorf("expected path %q, got %q", name, decodeErr.Path)
	}
	if !strings.Contains(err.Error(), `"bad\xff.py"`) {
		t.Errorf("expected escaped path in message, got %q", err.Error())
	}
	if _, statErr := os.Stat(opts.OutputPath); !os.IsNotExist(statErr) {
		t.Error("expected no output file after a decode failure")
	}
}

func Test_invalidOffset(t *testing.T) {
	tests := []struct {
		data []byte
		want int
	}{
		{[]byte("\xffabc"), 0},
		{[]byte("héllo\xc3"), 6},
		{[]byte("valid \uFFFD then \x80"), len("valid \uFFFD then ")},
	}
	for _, tt := range tests {
		if got := invalidOffset(tt.data); got != tt.want {
			t.Errorf("invalidOffset(%q) = %d, want %d", tt.data, got, tt.want)
		}
	}
}
