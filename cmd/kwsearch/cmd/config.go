package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/kwsearch/configs"
	"github.com/Aman-CERP/kwsearch/internal/config"
	"github.com/Aman-CERP/kwsearch/internal/output"
	"github.com/Aman-CERP/kwsearch/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage kwsearch configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/kwsearch/config.yaml)
  3. Project config (.kwsearch.yaml)
  4. Environment variables (KWSEARCH_*)
  5. Command-line flags`,
		Example: `  # Create .kwsearch.yaml in the current directory
  kwsearch config init

  # Show the effective configuration
  kwsearch config show --json

  # Print config file locations
  kwsearch config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a configuration file from the template",
		Long: `Write a commented configuration template.

By default .kwsearch.yaml is created in dir (or the current directory).
With --user the machine-wide file is created instead. An existing file is
kept unless --force is given, in which case it is backed up first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runConfigInit(cmd, dir, force, user)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Create the user config instead of the project config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [dir]",
		Short: "Show effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runConfigShow(cmd, dir, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "user:    %s\n", config.GetUserConfigPath())
			project := config.ProjectConfigPath(".")
			if project == "" {
				project = config.ProjectConfigName + " (not found)"
			}
			_, _ = fmt.Fprintf(out, "project: %s\n", project)
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, dir string, force, user bool) error {
	out := output.NewWithColor(cmd.OutOrStdout(), ui.IsTTY(cmd.OutOrStdout()) && !ui.DetectNoColor())

	path := filepath.Join(dir, config.ProjectConfigName)
	template := configs.ProjectConfigTemplate
	if user {
		path = config.GetUserConfigPath()
		template = configs.UserConfigTemplate
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warningf("Configuration already exists: %s", path)
			out.Hint("Use --force to overwrite it (a backup is kept)")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return err
		}
		out.Statusf("📦", "Backed up to %s", backup)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out.Successf("Created %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, dir string, jsonOutput bool) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := cfg.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
