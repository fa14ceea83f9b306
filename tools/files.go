package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilesArgs defines the input parameters for the bundle_files tool.
type FilesArgs struct {
	Pattern  string `json:"pattern,omitempty" jsonschema:"Glob pattern over bundled paths (e.g. **/*.py). Defaults to all files"`
	NameOnly bool   `json:"nameOnly,omitempty" jsonschema:"If true return only paths without sizes"`
}

// FilesHandler lists the entries of the most recent build.
type FilesHandler struct {
	LastBuild LastBuildFunc
	Logger    *slog.Logger
}

// Handle processes a bundle_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	summary := h.LastBuild()
	if summary == nil {
		return errorResult("No bundle built yet. Run bundle_build first."), nil, nil
	}

	pattern := args.Pattern
	if pattern == "" {
		pattern = "**"
	}

	entries, err := summary.Bundle.Match(pattern)
	if err != nil {
		h.Logger.Error("bundle_files failed", "pattern", pattern, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("bundle_files", "pattern", pattern, "results", len(entries))
	return textResult(FormatEntries(entries, args.NameOnly)), nil, nil
}
