package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/kwsearch/internal/config"
	"github.com/Aman-CERP/kwsearch/internal/logging"
	"github.com/Aman-CERP/kwsearch/internal/scanner"
	"github.com/Aman-CERP/kwsearch/internal/search"
	"github.com/Aman-CERP/kwsearch/internal/worker"
)

// CheckConfig validates the merged configuration.
func (c *Checker) CheckConfig(cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "config",
		Required: true,
	}

	if err := cfg.Validate(); err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Run 'kwsearch config show' to see the effective values"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("strategy %s, max_workers %d", cfg.Search.Strategy, cfg.Search.MaxWorkers)
	if p := config.ProjectConfigPath("."); p != "" {
		result.Details = "project config: " + p
	}
	return result
}

// CheckDirectory lists the search directory with the configured filters.
// An empty listing is a warning, since the search would report nothing.
func (c *Checker) CheckDirectory(ctx context.Context, cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "directory",
		Required: true,
	}

	lister, err := scanner.New(c.logger)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	files, err := lister.List(ctx, &scanner.ListOptions{
		RootDir:          cfg.Paths.Directory,
		Extensions:       cfg.Paths.Extensions,
		ExcludePatterns:  cfg.Paths.Exclude,
		RespectGitignore: cfg.Paths.RespectGitignore,
		MaxFileSize:      cfg.Paths.MaxFileSize,
	})
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Pass --dir or set paths.directory in .kwsearch.yaml"
		return result
	}

	if len(files) == 0 {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s: no files with extensions %v", cfg.Paths.Directory, cfg.Paths.Extensions)
		result.Details = "Searches will report no matches"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s: %d files", cfg.Paths.Directory, len(files))
	return result
}

// CheckWorker starts one isolated worker with an empty chunk and waits for
// its answer. Failure only rules out the isolated strategy.
func (c *Checker) CheckWorker(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:     "isolated_worker",
		Required: false,
	}

	opts := append([]worker.Option{
		worker.WithLogger(c.logger),
		worker.WithStderr(io.Discard),
	}, c.workerOptions...)

	unit, err := worker.NewIsolatedUnit(opts...)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Use --strategy shared"
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out := make(chan search.PartialResult, 1)
	start := time.Now()
	if err := unit.Run(ctx, 0, nil, search.NewKeywords("kwsearch"), out); err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Use --strategy shared"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("child process answered in %s", time.Since(start).Round(time.Millisecond))
	return result
}

// CheckLogDir checks that --debug can write its log file.
func (c *Checker) CheckLogDir() CheckResult {
	result := CheckResult{
		Name:     "log_dir",
		Required: false,
	}

	dir := logging.DefaultLogDir()
	if err := logging.EnsureLogDir(); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		result.Details = "--debug logging will fail"
		return result
	}

	testFile := filepath.Join(dir, ".kwsearch-preflight")
	f, err := os.Create(testFile)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s not writable: %v", dir, err)
		result.Details = "--debug logging will fail"
		return result
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	result.Status = StatusPass
	result.Message = dir
	return result
}
