package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/sitebundle/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs defines the input parameters for the bundle_search tool.
type SearchArgs struct {
	Query        string `json:"query" jsonschema:"Search query. Plain text for word match, quoted for exact phrase, /regex/ for regular expression"`
	FileGlob     string `json:"fileGlob,omitempty" jsonschema:"Optional glob pattern over bundled paths (e.g. **/*.py)"`
	MaxResults   int    `json:"maxResults,omitempty" jsonschema:"Maximum number of file results to return (default 50)"`
	ContextLines int    `json:"contextLines,omitempty" jsonschema:"Number of context lines before and after each match (default 2)"`
}

// SearchHandler searches the content of the most recent build.
type SearchHandler struct {
	LastBuild LastBuildFunc
	Logger    *slog.Logger
}

// Handle processes a bundle_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" {
		h.Logger.Warn("bundle_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	summary := h.LastBuild()
	if summary == nil || summary.Index == nil {
		return errorResult("No bundle built yet. Run bundle_build first."), nil, nil
	}

	contextLines := args.ContextLines
	if contextLines == 0 {
		contextLines = 2
	}

	results, totalMatches, err := summary.Index.Search(search.Options{
		Query:        args.Query,
		FileGlob:     args.FileGlob,
		MaxResults:   args.MaxResults,
		ContextLines: contextLines,
	})
	if err != nil {
		h.Logger.Error("bundle_search failed", "query", args.Query, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("bundle_search",
		"query", args.Query,
		"fileGlob", args.FileGlob,
		"files", len(results),
		"matches", totalMatches,
		"elapsed", time.Since(start),
	)

	return textResult(FormatSearchResults(results, totalMatches)), nil, nil
}
