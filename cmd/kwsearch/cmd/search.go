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
	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
	"github.com/Aman-CERP/kwsearch/internal/runner"
	"github.com/Aman-CERP/kwsearch/internal/ui"
	"github.com/Aman-CERP/kwsearch/internal/worker"
)

// searchFlags are shared by search and watch. Unset flags leave the loaded
// configuration alone.
type searchFlags struct {
	keywords   []string
	dir        string
	extensions []string
	strategy   string
	maxWorkers int
	gitignore  bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.keywords, "keyword", "k", nil, "Keyword to search for (repeatable or comma-separated)")
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Directory to search (default from config: ./text_files)")
	cmd.Flags().StringSliceVarP(&f.extensions, "ext", "e", nil, "File extensions to include (default .txt)")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "Worker strategy: shared (goroutines) or isolated (processes)")
	cmd.Flags().IntVarP(&f.maxWorkers, "max-workers", "w", 0, "Upper bound on concurrent workers")
	cmd.Flags().BoolVar(&f.gitignore, "gitignore", false, "Skip files matched by .gitignore")
}

// apply overrides cfg with every flag the user set, then validates it.
func (f *searchFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("keyword") {
		cfg.Search.Keywords = f.keywords
	}
	if flags.Changed("dir") {
		cfg.Paths.Directory = f.dir
	}
	if flags.Changed("ext") {
		cfg.Paths.Extensions = f.extensions
	}
	if flags.Changed("strategy") {
		cfg.Search.Strategy = f.strategy
	}
	if flags.Changed("max-workers") {
		cfg.Search.MaxWorkers = f.maxWorkers
	}
	if flags.Changed("gitignore") {
		cfg.Paths.RespectGitignore = f.gitignore
	}
	return cfg.Validate()
}

type searchOptions struct {
	searchFlags
	format   string
	progress bool
	compare  bool
	noColor  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [file...]",
		Short: "Report which files contain each keyword",
		Long: `Search files for keywords using concurrent workers.

With no file arguments, every matching file under --dir is searched.
Matching is a case-sensitive substring test on each file's contents.
Repeated keywords are searched once; an empty keyword is rejected.
Unreadable files are skipped with a warning.

Examples:
  kwsearch search
  kwsearch search -k Python -k error --dir ./logs --ext .log
  kwsearch search --strategy isolated --max-workers 8
  kwsearch search --compare --format json
  kwsearch search -k TODO a.txt b.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSearch(ctx, cmd, args, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", ui.FormatText, "Output format: text, json")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "Show progress on stderr")
	cmd.Flags().BoolVar(&opts.compare, "compare", false, "Run both strategies on the same files and compare them")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, files []string, opts searchOptions) error {
	if !ui.ValidFormat(opts.format) {
		return kwerrors.ValidationError(fmt.Sprintf("unknown format %q", opts.format), nil).
			WithSuggestion("use --format text or --format json")
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if err := opts.apply(cmd, cfg); err != nil {
		return err
	}

	runCfg := runner.FromConfig(cfg)
	if len(files) > 0 {
		runCfg.Files = files
	}

	var renderer ui.Renderer
	if opts.progress {
		uiCfg := ui.NewConfig(cmd.ErrOrStderr(),
			ui.WithNoColor(opts.noColor),
			ui.WithDirectory(runCfg.Directory))
		renderer = ui.NewRenderer(uiCfg)
		if err := renderer.Start(ctx); err != nil {
			slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
			renderer = nil
		}
	}

	r, err := runner.NewRunner(runner.Dependencies{
		Renderer:      renderer,
		Logger:        slog.Default(),
		WorkerOptions: childWorkerOptions(),
		WorkerStderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	slog.Info("search_started",
		slog.Any("keywords", runCfg.Keywords),
		slog.String("directory", runCfg.Directory),
		slog.String("strategy", runCfg.Strategy),
		slog.Bool("compare", opts.compare))

	results := ui.NewResultRenderer(cmd.OutOrStdout(), opts.noColor)

	if opts.compare {
		shared, isolated, err := r.Compare(ctx, runCfg)
		stopRenderer(renderer)
		if err != nil {
			return err
		}
		return results.RenderComparison(shared.Report, isolated.Report, opts.format)
	}

	res, err := r.Run(ctx, runCfg)
	stopRenderer(renderer)
	if err != nil {
		return err
	}
	return results.Render(res.Report, opts.format)
}

// childWorkerOptions forwards --debug to isolated workers so they log to
// the same file.
func childWorkerOptions() []worker.Option {
	if debugMode {
		return []worker.Option{worker.WithExtraArgs("--debug")}
	}
	return nil
}

func stopRenderer(r ui.Renderer) {
	if r == nil {
		return
	}
	if err := r.Stop(); err != nil {
		slog.Debug("renderer_stop_failed", slog.String("error", err.Error()))
	}
}
