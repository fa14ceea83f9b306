package server

import (
	"github.com/lexandro/sitebundle/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	buildHandler *tools.BuildHandler,
	filesHandler *tools.FilesHandler,
	searchHandler *tools.SearchHandler,
	readHandler *tools.ReadHandler,
	statusHandler *tools.StatusHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "sitebundle",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server regenerates the website bundle: a JavaScript file that assigns every allow-listed file under the website root into Sk.builtinFiles.files.

- Use bundle_build after editing files under the website root
- Use bundle_files to see which paths the last build bundled
- Use bundle_search to find text in the bundled files
- Use bundle_read to see a file exactly as it was bundled
- Use bundle_status to see the configured paths and the last build`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "bundle_build",
		Description: "Rescan the website root from scratch and rewrite the bundle file. Fails without touching the previous bundle if any file cannot be read as UTF-8 text.",
	}, buildHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "bundle_files",
		Description: `List files in the most recent bundle.

Pattern examples:
  - "**/*.py" - all Python files
  - "lib/**" - everything under lib/
  - "*.html" - HTML files in the root only`,
	}, filesHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "bundle_search",
		Description: `Search the content of the files in the most recent bundle.

Query syntax:
  - hello world - word match
  - "hello world" - exact phrase
  - /def\s+\w+/ - regular expression`,
	}, searchHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "bundle_read",
		Description: "Read one file from the most recent bundle, with line numbers.",
	}, readHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "bundle_status",
		Description: "Show the root directory, output file, and the file count and size of the last build.",
	}, statusHandler.Handle)

	return mcpServer
}
