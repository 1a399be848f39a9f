package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
// Inside a project (a .greenledger directory found by walking up, or one named
// by --project-dir) it writes project-local config and a .gitignore unless
// --global is set. Otherwise it writes the global config file.
func NewConfigInitCmd() *cobra.Command {
	var (
		force  bool
		global bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Initialize configuration file with default values",
		Annotations: map[string]string{annotationCreatesConfig: "true"},
		Long: `Creates a new configuration file with default values.

Inside a project, creates project-local configuration at
$PROJECT/.greenledger/config.yaml with a .gitignore that keeps ledger state
and caches out of version control. Use --global to initialize the global
configuration even inside a project.`,
		Example: `  # Create project-local configuration
  greenledger config init --project-dir .

  # Create global configuration
  greenledger config init --global

  # Create configuration, overwriting existing
  greenledger config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectDir := config.GetResolvedProjectDir()

			if projectDir != "" && !global {
				return initProjectConfig(cmd, projectDir, force)
			}

			return initGlobalConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "force global configuration init even inside a project")

	return cmd
}

// checkWritable refuses to overwrite an existing file unless force is set.
func checkWritable(path string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return errors.New("configuration file already exists, use --force to overwrite")
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access config path %s: %w", path, err)
	}
	return nil
}

// initProjectConfig creates project-local config at projectDir/config.yaml with .gitignore.
func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	configPath := filepath.Join(projectDir, "config.yaml")
	if err := checkWritable(configPath, force); err != nil {
		return err
	}

	if err := os.MkdirAll(projectDir, 0o750); err != nil {
		return fmt.Errorf("failed to create project config directory: %w", err)
	}

	cfg := config.Defaults()
	cfg.SetPath(configPath)
	// Project state lives next to the project config.
	cfg.Store.Path = filepath.Join(projectDir, "state.json")
	cfg.Cache.Directory = filepath.Join(projectDir, "cache")
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	created, err := config.EnsureGitignore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	if created {
		cmd.Printf("Created .gitignore to keep ledger state out of version control\n")
	}

	return nil
}

// initGlobalConfig creates the global config file, or the --config file when given.
func initGlobalConfig(cmd *cobra.Command, force bool) error {
	cfg := config.Defaults()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.SetPath(path)
	}
	if err := checkWritable(cfg.Path(), force); err != nil {
		return err
	}

	if err := config.EnsureSubDirs(); err != nil {
		return fmt.Errorf("failed to create greenledger directories: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", cfg.Path())

	return nil
}
