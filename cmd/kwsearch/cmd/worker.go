package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kwsearch/internal/worker"
)

// newWorkerCmd is the child side of the isolated strategy. It is started by
// the parent with one request on stdin and is not meant to be run by hand.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    worker.Subcommand,
		Short:  "Scan one chunk of files (internal)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.Default().With(slog.Int("pid", os.Getpid()))
			return worker.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), worker.ServeOptions{
				Logger: logger,
			})
		},
	}
}
