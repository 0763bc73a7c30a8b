// Package ui renders search progress and results on the terminal.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/kwsearch/internal/search"
)

// Stage is a step of a search as the user sees it.
type Stage int

const (
	// StageListing walks the directory for candidate files.
	StageListing Stage = iota
	// StagePartitioning splits the file list into chunks.
	StagePartitioning
	// StageScanning runs the worker units.
	StageScanning
	// StageAggregating merges partial results.
	StageAggregating
	// StageComplete indicates the search finished.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageListing:
		return "Listing"
	case StagePartitioning:
		return "Partitioning"
	case StageScanning:
		return "Scanning"
	case StageAggregating:
		return "Aggregating"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short tag used by plain output.
func (s Stage) Icon() string {
	switch s {
	case StageListing:
		return "LIST"
	case StagePartitioning:
		return "SPLIT"
	case StageScanning:
		return "SCAN"
	case StageAggregating:
		return "MERGE"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// StageFromState maps a coordinator state to the stage it belongs to.
// ok is false for states with no stage of their own.
func StageFromState(st search.State) (stage Stage, ok bool) {
	switch st {
	case search.StatePartitioning:
		return StagePartitioning, true
	case search.StateDispatching, search.StateAwaitingCompletion:
		return StageScanning, true
	case search.StateAggregating:
		return StageAggregating, true
	case search.StateDone:
		return StageComplete, true
	default:
		return 0, false
	}
}

// ProgressEvent is a progress update for the current stage.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	Message string
}

// ErrorEvent is a problem reported during a search.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// CompletionStats summarizes a finished search.
type CompletionStats struct {
	Files    int
	Workers  int
	Strategy string
	Matches  int
	Duration time.Duration
	Errors   int
	Warnings int
}

// Renderer displays search progress.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates the progress display.
	UpdateProgress(event ProgressEvent)

	// AddError records an error or warning.
	AddError(event ErrorEvent)

	// Complete shows the summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures a renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Directory  string // shown in the TUI header
}

// ConfigOption modifies a Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithDirectory sets the directory shown in the TUI header.
func WithDirectory(dir string) ConfigOption {
	return func(c *Config) {
		c.Directory = dir
	}
}

// NewConfig creates a Config writing to output.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns the TUI renderer on an interactive terminal and the
// plain renderer for pipes, CI, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// CoordinatorHooks returns coordinator options that feed r with stage
// changes and per-chunk progress.
func CoordinatorHooks(r Renderer) []search.CoordinatorOption {
	return []search.CoordinatorOption{
		search.WithStateHook(func(st search.State) {
			if stage, ok := StageFromState(st); ok && stage != StageComplete {
				r.UpdateProgress(ProgressEvent{Stage: stage})
			}
		}),
		search.WithUnitDoneHook(func(done, total int) {
			r.UpdateProgress(ProgressEvent{Stage: StageScanning, Current: done, Total: total, Message: "chunks"})
		}),
	}
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor reports whether NO_COLOR is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI reports whether a common CI variable is set.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
