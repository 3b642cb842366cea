package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/scoutsearch/configs"
	"github.com/Aman-CERP/scoutsearch/internal/config"
	"github.com/Aman-CERP/scoutsearch/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/scoutsearch/config.yaml)
  3. Project config (.scoutsearch.yaml)
  4. Environment variables (SCOUTSEARCH_*)`,
		Example: `  # Create user config with defaults
  scoutsearch config init

  # Show effective configuration
  scoutsearch config show

  # Print user config file path
  scoutsearch config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user configuration file with default values.

The file is created at ~/.config/scoutsearch/config.yaml, or under
$XDG_CONFIG_HOME or --config-dir when set.

With --force an existing file is backed up and rewritten with any new
options filled in from defaults. Existing settings are kept.`,
		Example: `  scoutsearch config init
  scoutsearch config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and upgrade an existing configuration")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after merging defaults, user config, project
config and environment variables.`,
		Example: `  scoutsearch config show
  scoutsearch config show --json
  scoutsearch config show --source defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout(), false)
	configPath := config.GetUserConfigPath()

	if !config.UserConfigExists() {
		if err := writeConfigTemplate(configPath); err != nil {
			return err
		}
		out.Success("Created user configuration")
		out.Status("", "Location: "+configPath)
		out.Status("", "Run 'scoutsearch config show' to verify")
		return nil
	}

	if !force {
		out.Warning("User configuration already exists")
		out.Status("", "Location: "+configPath)
		out.Status("", "Use --force to upgrade with new defaults (keeps your settings)")
		return nil
	}

	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}
	existing, err := config.LoadUserConfig()
	if err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("config file disappeared during upgrade")
	}
	if err := existing.WriteYAML(configPath); err != nil {
		return fmt.Errorf("failed to write upgraded config: %w", err)
	}

	out.Success("Configuration upgraded")
	out.Status("", "Location: "+configPath)
	out.Status("", "Backup: "+backupPath)
	return nil
}

// writeConfigTemplate writes the commented defaults to path.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	var (
		cfg *config.Config
		err error
	)
	switch source {
	case "merged", "":
		cfg, err = loadConfig()
	case "user":
		cfg, err = config.LoadUserConfig()
		if err == nil && cfg == nil {
			return fmt.Errorf("no user config at %s. Run 'scoutsearch config init'", config.GetUserConfigPath())
		}
	case "defaults":
		cfg = config.NewConfig()
	default:
		return fmt.Errorf("unknown config source %q (must be merged, user, or defaults)", source)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
