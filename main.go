package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/lexandro/sitebundle/ignore"
	"github.com/lexandro/sitebundle/search"
	"github.com/lexandro/sitebundle/server"
	"github.com/lexandro/sitebundle/tools"
	"github.com/lexandro/sitebundle/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// defaultRootDir is the website tree bundled by default, relative to the project root.
	defaultRootDir = "website"
	// defaultOutputPath is where the generated bundle is written, relative to the project root.
	defaultOutputPath = "tools/build/website_files.js"
	// toolsDirName is the directory the tool lives in; running from it means the
	// project root is its parent.
	toolsDirName = "tools"
)

// excludePatterns is a repeatable CLI flag for custom ignore patterns.
type excludePatterns []string

func (e *excludePatterns) String() string { return strings.Join(*e, ", ") }
func (e *excludePatterns) Set(value string) error {
	*e = append(*e, value)
	return nil
}

// config holds the parsed command line.
type config struct {
	Serve      bool
	RootDir    string
	OutputPath string
	Excludes   excludePatterns
	Watch      bool
	LogLevel   string
	LogFile    string
}

// parseConfig parses args (without the program name). A leading "serve" selects
// the MCP server mode.
func parseConfig(args []string, errOut io.Writer) (*config, error) {
	cfg := &config{}
	if len(args) > 0 && args[0] == "serve" {
		cfg.Serve = true
		args = args[1:]
	}

	fs := flag.NewFlagSet("sitebundle", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.RootDir, "root", defaultRootDir, "Website directory to bundle")
	fs.StringVar(&cfg.OutputPath, "out", defaultOutputPath, "Generated JavaScript file")
	fs.Var(&cfg.Excludes, "exclude", "Extra ignore pattern, doublestar syntax (repeatable)")
	fs.BoolVar(&cfg.Watch, "watch", false, "Rebuild whenever files under the root change")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Log file path (default: stderr)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if cfg.Serve && cfg.Watch {
		return nil, errors.New("-watch cannot be combined with serve")
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Always run relative to the project root, even when started from tools/.
	if err := normalizeWorkingDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error normalizing working directory: %v\n", err)
		os.Exit(1)
	}

	// Logs never go to stdout: it carries the summary line, or the MCP stdio transport.
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)

	matcher := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:        absPath(cfg.RootDir),
		CustomPatterns: cfg.Excludes,
	})
	opts := bundleOptions{
		RootDir:    cfg.RootDir,
		OutputPath: cfg.OutputPath,
		Skip:       matcher,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case cfg.Serve:
		err = runServer(ctx, opts, logger)
	case cfg.Watch:
		err = runWatch(ctx, opts, matcher, logger)
	default:
		err = runOnce(opts, logger)
	}
	if err != nil {
		logger.Error("sitebundle failed", "error", err)
		os.Exit(1)
	}
}

// runOnce performs a single build and prints the summary.
func runOnce(opts bundleOptions, logger *slog.Logger) error {
	result, err := performBundling(opts, logger)
	if err != nil {
		return err
	}
	logger.Debug("bundle written", "skipped", result.Skipped, "totalSize", result.TotalSize, "duration", result.Duration)
	fmt.Printf("Bundled %d files into %s\n", result.Bundle.Len(), result.OutputPath)
	return nil
}

// runWatch builds once, then rebuilds from scratch after every batch of changes
// until ctx is cancelled. Only the first build's failure is fatal.
func runWatch(ctx context.Context, opts bundleOptions, matcher *ignore.Matcher, logger *slog.Logger) error {
	if err := runOnce(opts, logger); err != nil {
		return err
	}

	fileWatcher, err := watcher.NewWatcher(watcher.Options{
		RootDir:      absPath(opts.RootDir),
		Ignore:       matcher,
		AlwaysReport: []string{ignore.IgnoreFileName},
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	go fileWatcher.Run(ctx)

	logger.Info("watching for changes", "root", opts.RootDir)
	outputPath := absPath(opts.OutputPath)
	for events := range fileWatcher.Events() {
		if !affectsBundle(events, outputPath) {
			continue
		}
		logger.Debug("change detected", "events", len(events), "first", events[0].Path, "op", events[0].Op)

		matcher.Reload()
		if err := runOnce(opts, logger); err != nil {
			logger.Error("rebuild failed, previous bundle left in place", "error", err)
		}
	}
	logger.Info("stopped watching")
	return nil
}

// affectsBundle reports whether a batch contains anything besides writes of the
// bundle file itself (and its temp files), which would otherwise retrigger a build
// when the output lives under the root.
func affectsBundle(events []watcher.Event, outputPath string) bool {
	tmpPrefix := "." + filepath.Base(outputPath) + "-"
	outputDir := filepath.Dir(outputPath)
	for _, event := range events {
		if event.Path == outputPath {
			continue
		}
		if filepath.Dir(event.Path) == outputDir && strings.HasPrefix(filepath.Base(event.Path), tmpPrefix) {
			continue
		}
		return true
	}
	return false
}

// runServer serves the build tools over MCP stdio until the client disconnects.
func runServer(ctx context.Context, opts bundleOptions, logger *slog.Logger) error {
	var mu sync.Mutex
	var lastBuild *tools.BuildSummary

	doBuild := func() (*tools.BuildSummary, error) {
		mu.Lock()
		defer mu.Unlock()

		result, err := performBundling(opts, logger)
		if err != nil {
			return nil, err
		}
		if lastBuild != nil && lastBuild.Index != nil {
			lastBuild.Index.Close()
		}
		lastBuild = &tools.BuildSummary{
			Bundle:     result.Bundle,
			RootDir:    absPath(opts.RootDir),
			OutputPath: absPath(result.OutputPath),
			TotalSize:  result.TotalSize,
			Skipped:    result.Skipped,
			Duration:   result.Duration,
			FinishedAt: time.Now(),
		}

		// The bundle file is already written; an indexing failure only disables search.
		index, err := search.Build(result.Bundle)
		if err != nil {
			logger.Error("failed to index bundle", "error", err)
		} else {
			lastBuild.Index = index
			logger.Debug("bundle indexed", "documents", index.DocumentCount())
		}
		return lastBuild, nil
	}
	getLastBuild := func() *tools.BuildSummary {
		mu.Lock()
		defer mu.Unlock()
		return lastBuild
	}

	mcpServer := server.Setup(
		&tools.BuildHandler{DoBuild: doBuild, Logger: logger},
		&tools.FilesHandler{LastBuild: getLastBuild, Logger: logger},
		&tools.SearchHandler{LastBuild: getLastBuild, Logger: logger},
		&tools.ReadHandler{LastBuild: getLastBuild, Logger: logger},
		&tools.StatusHandler{
			RootDir:    absPath(opts.RootDir),
			OutputPath: absPath(opts.OutputPath),
			StartTime:  time.Now(),
			LastBuild:  getLastBuild,
			Logger:     logger,
		},
	)

	defer func() {
		if last := getLastBuild(); last != nil && last.Index != nil {
			last.Index.Close()
		}
	}()

	logger.Info("MCP server starting on stdio", "root", opts.RootDir, "output", opts.OutputPath)
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}

// normalizeWorkingDir changes to the project root when started from its tools/ directory.
func normalizeWorkingDir() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	root := projectRoot(cwd)
	if root == cwd {
		return nil
	}
	if err := os.Chdir(root); err != nil {
		return fmt.Errorf("changing to %s: %w", root, err)
	}
	return nil
}

// projectRoot returns the parent of cwd when cwd is a tools/ directory, else cwd.
func projectRoot(cwd string) string {
	if filepath.Base(cwd) == toolsDirName {
		return filepath.Dir(cwd)
	}
	return cwd
}

// absPath returns path made absolute, or path unchanged if that fails.
func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
