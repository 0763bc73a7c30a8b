// Package runner wires listing, the search coordinator and the worker units
// into one call shared by the CLI, watch mode and the MCP server.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/kwsearch/internal/config"
	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
	"github.com/Aman-CERP/kwsearch/internal/scanner"
	"github.com/Aman-CERP/kwsearch/internal/search"
	"github.com/Aman-CERP/kwsearch/internal/ui"
	"github.com/Aman-CERP/kwsearch/internal/worker"
)

// RunConfig describes one search.
type RunConfig struct {
	// Directory is walked for candidate files.
	Directory string

	// Files, when non-nil, is searched as given and Directory is not walked.
	Files []string

	Extensions       []string
	Exclude          []string
	RespectGitignore bool
	MaxFileSize      int64

	Keywords   []string
	Strategy   string
	MaxWorkers int
}

// FromConfig builds a RunConfig from the loaded configuration.
func FromConfig(cfg *config.Config) RunConfig {
	return RunConfig{
		Directory:        cfg.Paths.Directory,
		Extensions:       cfg.Paths.Extensions,
		Exclude:          cfg.Paths.Exclude,
		RespectGitignore: cfg.Paths.RespectGitignore,
		MaxFileSize:      cfg.Paths.MaxFileSize,
		Keywords:         cfg.Search.Keywords,
		Strategy:         cfg.Search.Strategy,
		MaxWorkers:       cfg.Search.MaxWorkers,
	}
}

// RunResult is the outcome of Run.
type RunResult struct {
	Report *search.Report

	// Warnings counts files that could not be read, plus files the listing
	// left out for exceeding MaxFileSize.
	Warnings int

	// ListDuration is the time spent walking Directory.
	ListDuration time.Duration
}

// Dependencies are the injected collaborators of a Runner.
type Dependencies struct {
	// Renderer receives progress. Optional.
	Renderer ui.Renderer

	// Lister walks directories. Optional; a new scanner.Scanner is created.
	Lister *scanner.Scanner

	// Logger is used by every stage. Optional; defaults to slog.Default.
	Logger *slog.Logger

	// WorkerOptions configure the isolated unit, for example a test binary
	// as the child command.
	WorkerOptions []worker.Option

	// WorkerStderr receives child stderr. Optional; defaults to os.Stderr.
	WorkerStderr io.Writer
}

// Runner executes searches with progress reporting.
type Runner struct {
	renderer      ui.Renderer
	lister        *scanner.Scanner
	logger        *slog.Logger
	workerOptions []worker.Option
	workerStderr  io.Writer
}

// NewRunner creates a Runner from deps.
func NewRunner(deps Dependencies) (*Runner, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lister := deps.Lister
	if lister == nil {
		var err error
		lister, err = scanner.New(logger)
		if err != nil {
			return nil, fmt.Errorf("create file lister: %w", err)
		}
	}

	stderr := deps.WorkerStderr
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Runner{
		renderer:      deps.Renderer,
		lister:        lister,
		logger:        logger,
		workerOptions: deps.WorkerOptions,
		workerStderr:  stderr,
	}, nil
}

// Lister returns the directory lister, so watch mode can invalidate its
// gitignore cache.
func (r *Runner) Lister() *scanner.Scanner {
	return r.lister
}

// Run lists files, then searches them with cfg.Strategy.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	strategy, err := search.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	files, skipped, listDur, err := r.list(ctx, cfg)
	if err != nil {
		return nil, err
	}

	report, warnings, err := r.search(ctx, files, cfg, strategy)
	if err != nil {
		return nil, err
	}
	warnings += skipped

	r.complete(report, warnings)
	return &RunResult{Report: report, Warnings: warnings, ListDuration: listDur}, nil
}

// Compare lists files once and searches them with both strategies, shared
// first.
func (r *Runner) Compare(ctx context.Context, cfg RunConfig) (shared, isolated *RunResult, err error) {
	files, skipped, listDur, err := r.list(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	results := make([]*RunResult, 0, 2)
	for _, strategy := range []search.Strategy{search.StrategyShared, search.StrategyIsolated} {
		report, warnings, err := r.search(ctx, files, cfg, strategy)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, &RunResult{Report: report, Warnings: warnings + skipped, ListDuration: listDur})
	}

	r.complete(results[1].Report, results[1].Warnings)
	return results[0], results[1], nil
}

// list returns the files to search and how many were skipped for size.
func (r *Runner) list(ctx context.Context, cfg RunConfig) ([]string, int, time.Duration, error) {
	if cfg.Files != nil {
		return cfg.Files, 0, 0, nil
	}

	r.progress(ui.ProgressEvent{Stage: ui.StageListing})
	start := time.Now()

	skipped := 0
	files, err := r.lister.List(ctx, &scanner.ListOptions{
		RootDir:          cfg.Directory,
		Extensions:       cfg.Extensions,
		ExcludePatterns:  cfg.Exclude,
		RespectGitignore: cfg.RespectGitignore,
		MaxFileSize:      cfg.MaxFileSize,
		OnSkip: func(path string, err error) {
			skipped++
			if r.renderer != nil {
				r.renderer.AddError(ui.ErrorEvent{File: path, Err: err, IsWarn: true})
			}
		},
	})
	if err != nil {
		return nil, 0, 0, err
	}

	elapsed := time.Since(start)
	r.progress(ui.ProgressEvent{Stage: ui.StageListing, Message: fmt.Sprintf("%d files", len(files))})
	r.logger.Debug("files_listed",
		slog.String("directory", cfg.Directory),
		slog.Int("files", len(files)),
		slog.Int("skipped", skipped),
		slog.Duration("duration", elapsed))
	return files, skipped, elapsed, nil
}

func (r *Runner) search(ctx context.Context, files []string, cfg RunConfig, strategy search.Strategy) (*search.Report, int, error) {
	var warnings atomic.Int64

	onFileError := func(path string, err error) {
		warnings.Add(1)
		if r.renderer != nil {
			r.renderer.AddError(ui.ErrorEvent{File: path, Err: err, IsWarn: true})
		}
	}

	units, err := r.units(strategy, onFileError, &warnings)
	if err != nil {
		return nil, 0, err
	}

	opts := []search.CoordinatorOption{
		search.WithLogger(r.logger),
	}
	if cfg.MaxWorkers > 0 {
		opts = append(opts, search.WithMaxWorkers(cfg.MaxWorkers))
	}
	if r.renderer != nil {
		opts = append(opts, ui.CoordinatorHooks(r.renderer)...)
	}

	report, err := search.NewCoordinator(units, opts...).
		Run(ctx, files, search.NewKeywords(cfg.Keywords...), strategy)
	if err != nil {
		if r.renderer != nil {
			r.renderer.AddError(ui.ErrorEvent{Err: err})
		}
		return nil, 0, err
	}
	return report, int(warnings.Load()), nil
}

// units builds only the unit the run needs, so a shared run never looks up
// the executable.
func (r *Runner) units(strategy search.Strategy, onFileError func(string, error), warnings *atomic.Int64) (map[search.Strategy]search.Unit, error) {
	switch strategy {
	case search.StrategyShared:
		fs := search.NewFileScanner(
			search.WithScanLogger(r.logger),
			search.WithErrorHook(onFileError))
		return map[search.Strategy]search.Unit{strategy: search.NewSharedUnit(fs)}, nil

	case search.StrategyIsolated:
		opts := append([]worker.Option{
			worker.WithLogger(r.logger),
			worker.WithStderr(r.workerStderr),
			worker.WithFileErrorHook(func(n int) { warnings.Add(int64(n)) }),
		}, r.workerOptions...)
		unit, err := worker.NewIsolatedUnit(opts...)
		if err != nil {
			return nil, err
		}
		return map[search.Strategy]search.Unit{strategy: unit}, nil
	}

	return nil, kwerrors.New(kwerrors.ErrCodeInvalidStrategy, fmt.Sprintf("unknown strategy %q", strategy), nil)
}

func (r *Runner) progress(ev ui.ProgressEvent) {
	if r.renderer != nil {
		r.renderer.UpdateProgress(ev)
	}
}

func (r *Runner) complete(report *search.Report, warnings int) {
	if r.renderer == nil {
		return
	}
	r.renderer.Complete(ui.CompletionStats{
		Files:    report.Files,
		Workers:  report.Workers,
		Strategy: string(report.Strategy),
		Matches:  report.Result.Total(),
		Duration: report.Duration,
		Warnings: warnings,
	})
}

// IsUserError reports whether err comes from bad input rather than a
// failure of the search itself.
func IsUserError(err error) bool {
	var kwErr *kwerrors.KWError
	if !errors.As(err, &kwErr) {
		return false
	}
	switch kwErr.Category {
	case kwerrors.CategoryConfig, kwerrors.CategoryValidation:
		return true
	}
	return kwErr.Code == kwerrors.ErrCodeDirectoryNotFound
}
