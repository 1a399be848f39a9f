package cli

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the greenledger CLI.
// It resolves configuration, wires up logging and tracing, and registers
// every command group.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "greenledger",
		Short:         "Carbon footprint calculator with goals and rewards",
		Long:          "greenledger: compute household carbon footprints, track reduction goals and earn rewards",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Context() == nil {
				cmd.SetContext(context.Background())
			}
			if err := resolveConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default $GREENLEDGER_HOME/config.yaml)")
	cmd.PersistentFlags().String("store", "", "state file (overrides store.path)")
	cmd.PersistentFlags().String("project-dir", "", "project directory holding a .greenledger overlay")

	cmd.AddCommand(
		newFootprintCmd(), newFactorsCmd(), NewTrendCmd(),
		newRewardsCmd(), newGoalCmd(), newConfigCmd(),
		NewSetupCmd(),
	)

	return cmd
}

// annotationCreatesConfig marks commands that may run before their --config
// file exists.
const annotationCreatesConfig = "greenledger/creates-config"

// resolveConfig loads the explicit --config file, or the global config with
// the project overlay, applies --store and installs the result globally.
func resolveConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	var cfg *config.Config
	if path, _ := flags.GetString("config"); path != "" {
		cfg = config.Defaults()
		cfg.SetPath(path)
		if err := cfg.Load(); err != nil {
			if !errors.Is(err, os.ErrNotExist) || cmd.Annotations[annotationCreatesConfig] != "true" {
				return err
			}
		}
		cfg.ApplyEnvOverrides()
	} else {
		projectFlag, _ := flags.GetString("project-dir")
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		projectDir := config.ResolveProjectDir(ctx, projectFlag, wd)
		config.SetResolvedProjectDir(projectDir)
		cfg = config.NewWithProjectDir(ctx, projectDir)
	}

	if storePath, _ := flags.GetString("store"); storePath != "" {
		cfg.Store.Path = storePath
	}
	config.SetGlobalConfig(cfg)
	return nil
}

const rootCmdExample = `  # Calculate a footprint and record it for a user
  greenledger footprint calc --input activity.yaml --user alice

  # Pin an older emission factor table
  greenledger footprint calc --input activity.yaml --factors 1.0.0

  # Compare the latest footprint with earlier ones and with peers
  greenledger trend --user alice

  # Create a goal against the latest footprint
  greenledger goal create --user alice --target 20 --timeframe month --difficulty medium

  # Redeem a reward
  greenledger rewards redeem --user alice --item tree-plant

  # Initialize configuration
  greenledger config init`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd())
	return cmd
}
