package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/rewards"
	"github.com/rshade/greenledger/internal/trend"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration for syntax and semantic correctness.

This includes:
- YAML syntax of the config file
- Goal target bounds and milestone rewards
- Reward tier thresholds and the catalog file (if set)
- Emission factor table files and the selected factor version
- Cache, store, logging and output settings`,
		Example: `  # Validate current configuration
  greenledger config validate

  # Validate and show detailed information
  greenledger config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	// New() tolerates a malformed file; report it here.
	if fileErr := reloadForValidation(cfg); fileErr != nil {
		return fmt.Errorf("configuration validation failed: %w", fileErr)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	registry, err := loadRegistry(cfg.Factors.Tables)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	table, err := registry.Resolve(cfg.Factors.Version)
	if err != nil {
		return fmt.Errorf("configuration validation failed: factors.version: %w", err)
	}

	if cfg.Rewards.CatalogFile != "" {
		if _, err := rewards.LoadCatalog(cfg.Rewards.CatalogFile); err != nil {
			return fmt.Errorf("configuration validation failed: rewards.catalog_file: %w", err)
		}
	}

	if cfg.Trend.PeerMeansFile != "" {
		if _, err := trend.LoadPeerMeans(cfg.Trend.PeerMeansFile); err != nil {
			return fmt.Errorf("configuration validation failed: trend.peer_means_file: %w", err)
		}
	}

	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg, table.Version, registry.Versions())
	}

	return nil
}

// reloadForValidation parses the config file into a scratch copy so syntax
// errors surface without disturbing the active config.
func reloadForValidation(cfg *config.Config) error {
	scratch := config.Defaults()
	scratch.SetPath(cfg.Path())
	if err := scratch.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config, factorVersion string, versions []string) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", cfg.Path())
	cmd.Printf("  Factor table: %s (available: %v)\n", factorVersion, versions)
	cmd.Printf("  Goal targets: %g%% - %g%%\n", cfg.Goals.MinTargetPct, cfg.Goals.MaxTargetPct)
	cmd.Printf("  Milestones: easy %d, medium %d, hard %d\n",
		cfg.Goals.Milestones.Easy, cfg.Goals.Milestones.Medium, cfg.Goals.Milestones.Hard)
	cmd.Printf("  Tiers: sapling %d, grove %d, forest %d\n",
		cfg.Rewards.Tiers.Sapling, cfg.Rewards.Tiers.Grove, cfg.Rewards.Tiers.Forest)
	cmd.Printf("  Peer benchmark: %t (seed %d, spread %g)\n",
		cfg.Trend.PeerEnabled, cfg.Trend.PeerSeed, cfg.Trend.PeerSpread)
	if cfg.Trend.PeerMeansFile != "" {
		cmd.Printf("  Peer means: %s\n", cfg.Trend.PeerMeansFile)
	}
	cmd.Printf("  Store: %s (history %d)\n", cfg.Store.Path, cfg.Store.HistoryLimit)
	cmd.Printf("  Cache: %t (%ds, %s)\n", cfg.Cache.Enabled, cfg.Cache.TTLSeconds, cfg.Cache.Directory)
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Output precision: %d\n", cfg.Output.Precision)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	logFile := config.GetLogFile()
	if logFile == "" {
		logFile = "(stderr)"
	}
	cmd.Printf("  Log file: %s\n", logFile)
}
