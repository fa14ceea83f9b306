package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReadArgs defines the input parameters for the bundle_read tool.
type ReadArgs struct {
	FilePath string `json:"filePath" jsonschema:"Bundled path to read, relative to the website root (e.g. lib/app.py)"`
}

// ReadHandler returns one file's content as it was bundled by the most recent build.
type ReadHandler struct {
	LastBuild LastBuildFunc
	Logger    *slog.Logger
}

// Handle processes a bundle_read request.
func (h *ReadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReadArgs) (*mcp.CallToolResult, any, error) {
	if args.FilePath == "" {
		h.Logger.Warn("bundle_read called with empty filePath")
		return errorResult("Error: filePath parameter is required"), nil, nil
	}

	summary := h.LastBuild()
	if summary == nil {
		return errorResult("No bundle built yet. Run bundle_build first."), nil, nil
	}

	filePath := strings.ReplaceAll(args.FilePath, "\\", "/")
	content, ok := summary.Bundle.Get(filePath)
	if !ok {
		h.Logger.Info("bundle_read file not found", "filePath", filePath)
		return errorResult(fmt.Sprintf("File not found in bundle: %s", filePath)), nil, nil
	}

	h.Logger.Info("bundle_read", "filePath", filePath, "size", len(content))
	return textResult(FormatFileContent(filePath, content)), nil, nil
}
