// Package cmd provides the CLI commands for kwsearch.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	kwerrors "github.com/Aman-CERP/kwsearch/internal/errors"
	"github.com/Aman-CERP/kwsearch/internal/logging"
	"github.com/Aman-CERP/kwsearch/internal/profiling"
	"github.com/Aman-CERP/kwsearch/internal/worker"
	"github.com/Aman-CERP/kwsearch/pkg/version"
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// Profiling flags
var (
	profileOpts profiling.Options
	profiler    *profiling.Profiler
)

// NewRootCmd creates the root command for the kwsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kwsearch",
		Short: "Find which files contain which keywords",
		Long: `kwsearch splits a list of text files across concurrent workers and
reports, for each keyword, the files whose contents contain it.

Workers run either as goroutines in one process (--strategy shared) or
as separate child processes (--strategy isolated). Both produce the same
matches.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetVersionTemplate("kwsearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.kwsearch/logs/")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write heap profile to file on exit")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newWorkerCmd())

	return cmd
}

func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if err := startLogging(); err != nil {
		return err
	}
	if !profileOpts.Enabled() || cmd.Name() == worker.Subcommand {
		return nil
	}
	profiler = profiling.New(profileOpts)
	if err := profiler.Start(); err != nil {
		profiler = nil
		return err
	}
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}
	stopLogging()
	return err
}

// startLogging sends records to the rotating log file with --debug, and
// warnings to stderr otherwise.
func startLogging() error {
	if !debugMode {
		slog.SetDefault(logging.NewStderrLogger("warn"))
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("debug_logging_enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version),
		slog.Int("pid", os.Getpid()))
	return nil
}

func stopLogging() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, kwerrors.FormatForCLI(err))
		_ = stopProfilingAndLogging(nil, nil)
	}
	return err
}
