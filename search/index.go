// Package search provides full-text search over the files of one built bundle.
package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/lexandro/sitebundle/bundle"
	"github.com/lexandro/sitebundle/language"
)

// ErrClosed is returned by Search after Close.
var ErrClosed = errors.New("search index closed")

// Index is an in-memory Bleve index over a bundle's entries. It is built once from a
// finished bundle and never updated; a new build gets a new Index.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	bundle *bundle.Bundle
	closed bool
}

// document is the structure stored in Bleve.
type document struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

// Build indexes every entry of b in a memory-only Bleve index.
func Build(b *bundle.Bundle) (*Index, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}

	batch := bleveIndex.NewBatch()
	for _, entry := range b.Entries() {
		doc := document{
			Content:  entry.Content,
			Path:     entry.Path,
			Language: language.DetectLanguage(entry.Path),
		}
		if err := batch.Index(entry.Path, doc); err != nil {
			bleveIndex.Close()
			return nil, fmt.Errorf("indexing file %s: %w", entry.Path, err)
		}
	}
	if err := bleveIndex.Batch(batch); err != nil {
		bleveIndex.Close()
		return nil, fmt.Errorf("committing index batch: %w", err)
	}

	return &Index{index: bleveIndex, bundle: b}, nil
}

// buildIndexMapping maps content as analyzed text, path as stored text and
// language as a keyword.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Store = false // content is served from the bundle
	contentFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Store = true
	pathFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathFieldMapping)

	langFieldMapping := bleve.NewKeywordFieldMapping()
	langFieldMapping.Store = true
	langFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("language", langFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// DocumentCount returns the number of indexed files.
func (ix *Index) DocumentCount() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return 0
	}
	count, _ := ix.index.DocCount()
	return count
}

// Close releases the Bleve index. Safe to call more than once.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true
	return ix.index.Close()
}

// Result holds the matching lines of one file.
type Result struct {
	RelativePath string
	Matches      []LineMatch
}

// LineMatch is one matching line, with optional surrounding lines.
type LineMatch struct {
	LineNumber    int
	LineText      string
	ContextBefore []string
	ContextAfter  []string
}

// Options configures a search.
type Options struct {
	Query        string
	FileGlob     string // doublestar pattern over bundle paths, empty matches all
	MaxResults   int    // maximum files returned, default 50
	ContextLines int
}

// Search runs a full-text query. Query format:
//   - plain text: word match
//   - "quoted text": exact phrase
//   - /regex/: regular expression
//
// It returns per-file results in score order and the total number of matching lines.
func (ix *Index) Search(options Options) ([]Result, int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, 0, ErrClosed
	}
	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}
	if options.ContextLines < 0 {
		options.ContextLines = 0
	}

	glob := strings.ReplaceAll(options.FileGlob, "\\", "/")
	if glob != "" && !doublestar.ValidatePattern(glob) {
		return nil, 0, fmt.Errorf("invalid glob pattern: %s", glob)
	}

	searchRequest := bleve.NewSearchRequest(buildQuery(options.Query))
	searchRequest.Size = ix.bundle.Len()
	searchResults, err := ix.index.Search(searchRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("searching index: %w", err)
	}

	var results []Result
	totalMatches := 0
	for _, hit := range searchResults.Hits {
		if len(results) >= options.MaxResults {
			break
		}
		if glob != "" {
			if matched, _ := doublestar.Match(glob, hit.ID); !matched {
				continue
			}
		}
		content, ok := ix.bundle.Get(hit.ID)
		if !ok {
			continue
		}

		lineMatches := findMatchingLines(content, extractSearchTerm(options.Query), options.ContextLines)
		if len(lineMatches) == 0 {
			continue
		}
		totalMatches += len(lineMatches)
		results = append(results, Result{RelativePath: hit.ID, Matches: lineMatches})
	}

	return results, totalMatches, nil
}

// buildQuery parses the query string into a Bleve query.
func buildQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)

	if pattern, ok := unwrap(queryString, "/"); ok {
		return bleve.NewRegexpQuery(pattern)
	}
	if phrase, ok := unwrap(queryString, "\""); ok {
		return bleve.NewMatchPhraseQuery(phrase)
	}
	return bleve.NewMatchQuery(queryString)
}

// extractSearchTerm strips query syntax to get the raw term used for line matching.
func extractSearchTerm(queryString string) string {
	queryString = strings.TrimSpace(queryString)
	if term, ok := unwrap(queryString, "/"); ok {
		return term
	}
	if term, ok := unwrap(queryString, "\""); ok {
		return term
	}
	return queryString
}

// unwrap returns s without the surrounding delimiter when s is delim...delim.
func unwrap(s string, delim string) (string, bool) {
	if len(s) > 2 && strings.HasPrefix(s, delim) && strings.HasSuffix(s, delim) {
		return s[1 : len(s)-1], true
	}
	return s, false
}

// findMatchingLines returns the lines containing term, case-insensitively.
func findMatchingLines(content string, term string, contextLines int) []LineMatch {
	lines := strings.Split(content, "\n")
	termLower := strings.ToLower(term)

	var matches []LineMatch
	for lineIdx, line := range lines {
		if !strings.Contains(strings.ToLower(line), termLower) {
			continue
		}

		match := LineMatch{
			LineNumber: lineIdx + 1,
			LineText:   line,
		}
		if contextLines > 0 {
			start := max(lineIdx-contextLines, 0)
			end := min(lineIdx+contextLines+1, len(lines))
			match.ContextBefore = append(match.ContextBefore, lines[start:lineIdx]...)
			match.ContextAfter = append(match.ContextAfter, lines[lineIdx+1:end]...)
		}
		matches = append(matches, match)
	}
	return matches
}
