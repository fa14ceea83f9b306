package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the bundle_status tool (none required).
type StatusArgs struct{}

// StatusHandler reports the configured paths and the last build.
type StatusHandler struct {
	RootDir    string
	OutputPath string
	StartTime  time.Time
	LastBuild  LastBuildFunc
	Logger     *slog.Logger
}

// Handle processes a bundle_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder
	uptime := time.Since(h.StartTime)

	builder.WriteString("=== sitebundle Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Output file: %s\n", h.OutputPath))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))

	summary := h.LastBuild()
	if summary == nil {
		builder.WriteString("Last build: never\n")
		h.Logger.Info("bundle_status", "built", false)
	} else {
		builder.WriteString(fmt.Sprintf("Last build: %s ago (took %s)\n",
			formatDuration(time.Since(summary.FinishedAt)),
			summary.Duration.Round(time.Millisecond),
		))
		builder.WriteString(fmt.Sprintf("Bundled files: %d\n", summary.Bundle.Len()))
		builder.WriteString(fmt.Sprintf("Skipped files: %d\n", summary.Skipped))
		builder.WriteString(fmt.Sprintf("Total size: %s\n", formatFileSize(summary.TotalSize)))
		h.Logger.Info("bundle_status", "built", true, "files", summary.Bundle.Len())
	}

	return textResult(builder.String()), nil, nil
}
