package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/history"
	"github.com/ironsheep/image-editor-mcp/internal/segment"
	"github.com/ironsheep/image-editor-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// config holds the settings read from the environment.
type config struct {
	LogLevel     slog.Level
	ViewWidth    int
	ViewHeight   int
	HistoryLimit int
	BgTolerance  float64
}

// loadConfig reads IMAGE_EDITOR_* variables through getenv. Unset variables
// keep their defaults.
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		LogLevel:     slog.LevelInfo,
		ViewWidth:    editor.DefaultViewWidth,
		ViewHeight:   editor.DefaultViewHeight,
		HistoryLimit: history.DefaultLimit,
		BgTolerance:  segment.DefaultTolerance,
	}

	if v := getenv("IMAGE_EDITOR_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return cfg, fmt.Errorf("IMAGE_EDITOR_LOG_LEVEL: %w", err)
		}
	}

	if v := getenv("IMAGE_EDITOR_VIEW"); v != "" {
		w, h, ok := strings.Cut(strings.ToLower(v), "x")
		if !ok {
			return cfg, fmt.Errorf("IMAGE_EDITOR_VIEW: want WxH, got %q", v)
		}
		width, errW := strconv.Atoi(w)
		height, errH := strconv.Atoi(h)
		if errW != nil || errH != nil || width <= 0 || height <= 0 {
			return cfg, fmt.Errorf("IMAGE_EDITOR_VIEW: invalid size %q", v)
		}
		cfg.ViewWidth, cfg.ViewHeight = width, height
	}

	if v := getenv("IMAGE_EDITOR_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("IMAGE_EDITOR_HISTORY_LIMIT: want a positive integer, got %q", v)
		}
		cfg.HistoryLimit = n
	}

	if v := getenv("IMAGE_EDITOR_BG_TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return cfg, fmt.Errorf("IMAGE_EDITOR_BG_TOLERANCE: want a positive number, got %q", v)
		}
		cfg.BgTolerance = f
	}

	return cfg, nil
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-editor-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("image-editor-mcp - MCP server for raster image editing")
			fmt.Println()
			fmt.Println("Usage: image-editor-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  IMAGE_EDITOR_LOG_LEVEL=debug       Log level (debug, info, warn, error)")
			fmt.Println("  IMAGE_EDITOR_VIEW=800x600          View size the preview is fitted into")
			fmt.Println("  IMAGE_EDITOR_HISTORY_LIMIT=50      Maximum undo steps")
			fmt.Println("  IMAGE_EDITOR_BG_TOLERANCE=12       Background color tolerance (Lab ΔE)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "image-editor-mcp: %v\n", err)
		os.Exit(2)
	}

	// Logs go to stderr; stdout is for MCP protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	editor.SetLogger(logger)

	logger.Debug("starting image editor MCP server",
		"version", Version,
		"build_time", BuildTime,
		"commit", GitCommit,
		"view", fmt.Sprintf("%dx%d", cfg.ViewWidth, cfg.ViewHeight),
		"history_limit", cfg.HistoryLimit)

	ed := editor.New(editor.Options{
		ViewWidth:    cfg.ViewWidth,
		ViewHeight:   cfg.ViewHeight,
		HistoryLimit: cfg.HistoryLimit,
		Segmenter:    segment.NewBorderSegmenter(cfg.BgTolerance),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(ed).Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
