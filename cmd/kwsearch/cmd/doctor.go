package cmd

import (
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kwsearch/internal/config"
	"github.com/Aman-CERP/kwsearch/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
		dir        string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that searches can run on this machine",
		Long: `Run diagnostics before a search.

Checks:
  - Configuration is valid
  - The search directory exists and contains matching files
  - An isolated worker process can be started
  - File descriptor limit covers max_workers child processes
  - The debug log directory is writable

Worker and log directory problems are reported but do not fail the check.`,
		Example: `  # Run diagnostics
  kwsearch doctor

  # Check another directory with details
  kwsearch doctor --dir ./logs --verbose

  # JSON output for scripting
  kwsearch doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, dir, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to check (default from config)")

	return cmd
}

func runDoctor(cmd *cobra.Command, dir string, verbose, jsonOutput bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
		preflight.WithLogger(slog.Default()),
		preflight.WithWorkerOptions(childWorkerOptions()...),
	)

	var results []preflight.CheckResult
	cfg, err := config.Load(".")
	if err != nil {
		cfg = config.NewConfig()
		results = []preflight.CheckResult{{
			Name:     "config",
			Status:   preflight.StatusFail,
			Message:  err.Error(),
			Details:  "Fix the configuration file or KWSEARCH_* variables",
			Required: true,
		}}
		results = append(results,
			checker.CheckWorker(ctx),
			checker.CheckFileDescriptors(cfg.Search.MaxWorkers),
			checker.CheckLogDir(),
		)
	} else {
		if cmd.Flags().Changed("dir") {
			cfg.Paths.Directory = dir
		}
		results = checker.RunAll(ctx, cfg)
	}

	if jsonOutput {
		if err := writeDoctorJSON(cmd, checker, results); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return &doctorError{message: "system check failed"}
	}
	return nil
}

// doctorError reports required checks that failed.
type doctorError struct {
	message string
}

func (e *doctorError) Error() string {
	return e.message
}

// doctorReport is the --json document.
type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func writeDoctorJSON(cmd *cobra.Command, checker *preflight.Checker, results []preflight.CheckResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doctorReport{
		Status: checker.SummaryStatus(results),
		Checks: results,
	})
}
