package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openreview-mcp/internal/cache"
	"github.com/pdiddy/openreview-mcp/internal/openreview"
	"github.com/pdiddy/openreview-mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the OpenReview tools to an MCP host over stdio",
	Long: `Serve speaks the Model Context Protocol on stdin/stdout. All logging goes
to stderr. Connect it from an MCP host configuration, e.g.:

  {"command": "openreview-mcp", "args": ["serve"]}`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return fmt.Errorf("invalid log level %q: must be debug, info, warn or error", levelName)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := buildConfig()
	client := openreview.New(cfg.Client)

	var store *cache.Store
	if cfg.Cache.Enabled {
		var err error
		store, err = cache.Open(cfg.Cache)
		if err != nil {
			log.Warn("opening venue cache, continuing without", "error", err)
		} else {
			defer store.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(client, store, cfg, log, version)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serving MCP: %w", err)
	}
	return nil
}
