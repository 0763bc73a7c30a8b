package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kwsearch/internal/config"
	"github.com/Aman-CERP/kwsearch/internal/output"
	"github.com/Aman-CERP/kwsearch/internal/runner"
	"github.com/Aman-CERP/kwsearch/internal/scanner"
	"github.com/Aman-CERP/kwsearch/internal/ui"
	"github.com/Aman-CERP/kwsearch/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the search whenever files change",
		Long: `Run a search, then run it again each time files under --dir change.

Changes are debounced (watch.debounce, default 300ms) so a burst of writes
triggers one search. Editing a .gitignore inside the watched directory
reloads it. Editing the working directory's .kwsearch.yaml reloads the
configuration when that file lies inside the watched directory. The watched
directory itself stays fixed until watch is restarted. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, &flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, flags *searchFlags) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return err
	}

	out := output.NewWithColor(cmd.OutOrStdout(), ui.IsTTY(cmd.OutOrStdout()) && !ui.DetectNoColor())

	r, err := runner.NewRunner(runner.Dependencies{
		Logger:        slog.Default(),
		WorkerOptions: childWorkerOptions(),
		WorkerStderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	runCfg := runner.FromConfig(cfg)
	if err := watchSearch(ctx, r, runCfg, out); err != nil {
		return err
	}

	w, err := watcher.New(watcher.Options{
		DebounceWindow:   cfg.DebounceDuration(),
		RespectGitignore: cfg.Paths.RespectGitignore,
	}, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	startErr := make(chan error, 1)
	go func() { startErr <- w.Start(ctx, runCfg.Directory) }()

	select {
	case <-w.Ready():
	case err := <-startErr:
		return err
	case <-ctx.Done():
		return nil
	}
	out.Statusf("👀", "Watching %s (Ctrl+C to stop)", runCfg.Directory)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-startErr:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			out.Warningf("watch error: %v", err)

		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			rerun := false
			for _, ev := range batch {
				switch ev.Operation {
				case watcher.OpGitignoreChange:
					r.Lister().InvalidateGitignore(runCfg.Directory)
					rerun = true
				case watcher.OpConfigChange:
					if !isActiveConfig(runCfg.Directory, ev.Path) {
						continue
					}
					next, err := reloadWatchConfig(cmd, flags, runCfg.Directory)
					if err != nil {
						out.Warningf("config not reloaded: %v", err)
						continue
					}
					runCfg = next
					out.Status("🔄", "Configuration reloaded")
					rerun = true
				default:
					if ev.IsDir || ev.Operation == watcher.OpDelete || ev.Operation == watcher.OpRename ||
						scanner.HasExtension(ev.Path, runCfg.Extensions) {
						rerun = true
					}
				}
			}
			if !rerun {
				continue
			}
			slog.Debug("watch_rerun", slog.Int("events", len(batch)))
			if err := watchSearch(ctx, r, runCfg, out); err != nil {
				out.Errorf("search failed: %v", err)
			}
		}
	}
}

// watchSearch runs one search and prints a one-line summary.
func watchSearch(ctx context.Context, r *runner.Runner, cfg runner.RunConfig, out *output.Writer) error {
	res, err := r.Run(ctx, cfg)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), ui.Summary(res.Report))
	if res.Warnings > 0 {
		line += fmt.Sprintf(", %d unreadable", res.Warnings)
	}
	out.Success(line)
	return nil
}

// reloadWatchConfig reloads the configuration the same way runWatch first
// loaded it. The watched directory is kept; a new paths.directory only
// takes effect on the next watch.
func reloadWatchConfig(cmd *cobra.Command, flags *searchFlags, dir string) (runner.RunConfig, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return runner.RunConfig{}, err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return runner.RunConfig{}, err
	}
	next := runner.FromConfig(cfg)
	if next.Directory != dir {
		slog.Warn("watch_directory_change_ignored",
			slog.String("watching", dir),
			slog.String("configured", next.Directory))
		next.Directory = dir
	}
	return next, nil
}

// isActiveConfig reports whether rel, relative to the watched root, is the
// project config file that config.Load(".") reads.
func isActiveConfig(root, rel string) bool {
	changed, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return false
	}
	for _, name := range config.ProjectConfigNames {
		active, err := filepath.Abs(name)
		if err == nil && active == changed {
			return true
		}
	}
	return false
}
