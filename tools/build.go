package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/sitebundle/bundle"
	"github.com/lexandro/sitebundle/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// BuildSummary describes a successful bundling run. Index is nil until the
// content of the bundle has been indexed.
type BuildSummary struct {
	Bundle     *bundle.Bundle
	Index      *search.Index
	RootDir    string
	OutputPath string
	TotalSize  int64
	Skipped    int
	Duration   time.Duration
	FinishedAt time.Time
}

// BuildFunc runs a full bundling pass.
// It is provided by main.go to avoid circular dependencies.
type BuildFunc func() (*BuildSummary, error)

// LastBuildFunc returns the most recent successful build, or nil if there is none.
type LastBuildFunc func() *BuildSummary

// BuildArgs defines the input parameters for the bundle_build tool.
type BuildArgs struct{}

// BuildHandler holds the dependencies for the build tool.
type BuildHandler struct {
	DoBuild BuildFunc
	Logger  *slog.Logger
}

// Handle processes a bundle_build request.
func (h *BuildHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args BuildArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("bundle_build started")

	summary, err := h.DoBuild()
	if err != nil {
		h.Logger.Error("bundle_build failed", "error", err)
		return errorResult(fmt.Sprintf("Build error: %v", err)), nil, nil
	}

	h.Logger.Info("bundle_build complete",
		"files", summary.Bundle.Len(),
		"totalSize", summary.TotalSize,
		"elapsed", summary.Duration,
	)

	return textResult(FormatBuildSummary(summary)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
