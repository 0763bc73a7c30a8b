package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kwsearch/internal/config"
	"github.com/Aman-CERP/kwsearch/internal/logging"
	"github.com/Aman-CERP/kwsearch/internal/mcp"
	"github.com/Aman-CERP/kwsearch/internal/runner"
)

func newServeCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout.

The server exposes one tool, keyword_search. Omitted tool arguments fall
back to the loaded configuration. Logs go to ~/.kwsearch/logs/ because
stdout carries the protocol.

Example client entry:
  {"command": "kwsearch", "args": ["serve", "--dir", "/path/to/docs"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, dir)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Default directory for searches")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, dir string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if dir != "" {
		cfg.Paths.Directory = dir
	}

	level := cfg.Logging.Level
	if debugMode {
		level = "debug"
	}
	// stdout belongs to the protocol from here on
	cleanup, err := logging.SetupServeMode(level)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	r, err := runner.NewRunner(runner.Dependencies{
		Logger:        slog.Default(),
		WorkerOptions: childWorkerOptions(),
		WorkerStderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(r, cfg, slog.Default())
	if err != nil {
		return err
	}

	slog.Info("serve_started",
		slog.String("directory", cfg.Paths.Directory),
		slog.String("strategy", cfg.Search.Strategy))
	return srv.Serve(ctx)
}
