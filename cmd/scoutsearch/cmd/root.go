// Package cmd provides the CLI commands for scoutsearch.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scoutsearch/internal/config"
	"github.com/Aman-CERP/scoutsearch/internal/logging"
	"github.com/Aman-CERP/scoutsearch/internal/profiling"
	"github.com/Aman-CERP/scoutsearch/pkg/version"
)

// Global flags
var (
	debugMode      bool
	configDir      string
	loggingCleanup func()

	profileOpts profiling.Options
	profiler    *profiling.Session
)

// NewRootCmd creates the root command for the scoutsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scoutsearch",
		Short: "Hybrid semantic and keyword search over football players",
		Long: `scoutsearch indexes enriched football player records and answers
natural-language queries such as "young left-footed winger with many assists".

Each player is turned into a text profile, embedded into a dense vector index
and a TF-IDF keyword index, and the two scores are fused with a tunable alpha.

Run 'scoutsearch serve' to start the HTTP API, or 'scoutsearch serve --mcp'
to expose the search tools to an MCP client over stdio.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("scoutsearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.scoutsearch/logs/")
	cmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding the user config.yaml")
	cmd.PersistentFlags().StringVar(&profileOpts.CPUPath, "profile-cpu", "", "Write a CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.HeapPath, "profile-mem", "", "Write a heap profile to file on exit")
	cmd.PersistentFlags().StringVar(&profileOpts.TracePath, "profile-trace", "", "Write an execution trace to file")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newPlayerCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newEnrichCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}

// startLogging applies global flags. serve installs its own logger.
func startLogging(_ *cobra.Command, _ []string) error {
	if profileOpts.Enabled() {
		session, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profiler = session
	}

	if configDir != "" {
		if err := os.Setenv(config.ConfigDirEnv, configDir); err != nil {
			return fmt.Errorf("failed to set config dir: %w", err)
		}
	}

	if debugMode {
		cfg := logging.DefaultConfig()
		cfg.Level = "debug"
		cfg.WriteToStderr = false
		cleanup, err := logging.SetupDefault(cfg)
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.Info("debug_logging_enabled",
			slog.String("log_file", cfg.FilePath),
			slog.String("version", version.Version))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}
	if loggingCleanup != nil {
		slog.Info("debug_logging_stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
