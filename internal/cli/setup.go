package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/engine/cache"
	"github.com/rshade/greenledger/internal/logging"
	"github.com/rshade/greenledger/internal/store"
	"github.com/rshade/greenledger/pkg/version"
)

// StepStatus represents the outcome of a single setup step.
type StepStatus int

const (
	// StepSuccess indicates the step completed successfully.
	StepSuccess StepStatus = iota
	// StepWarning indicates the step completed with a non-fatal issue.
	StepWarning
	// StepSkipped indicates the step was intentionally skipped.
	StepSkipped
	// StepError indicates the step failed.
	StepError
)

// StepResult describes the outcome of executing a single setup step.
type StepResult struct {
	Name     string
	Status   StepStatus
	Message  string
	Critical bool
	Err      error
}

// SetupOptions holds the configuration for the setup command, derived from CLI flags.
type SetupOptions struct {
	NonInteractive bool
	ResetCache     bool
}

// SetupResult is the aggregate outcome of all setup steps.
type SetupResult struct {
	Steps       []StepResult
	HasErrors   bool
	HasWarnings bool
}

// dirPermBase is the permission mode for the base and standard directories.
const dirPermBase = 0o700

// formatStatus returns a status marker appropriate for the output mode.
func formatStatus(status StepStatus, nonInteractive bool) string {
	if nonInteractive {
		switch status {
		case StepSuccess:
			return "[OK]"
		case StepWarning:
			return "[WARN]"
		case StepSkipped:
			return "[SKIP]"
		case StepError:
			return "[ERR]"
		default:
			return "[??]"
		}
	}

	switch status {
	case StepSuccess:
		return "✓" // ✓
	case StepWarning:
		return "!"
	case StepSkipped:
		return "-"
	case StepError:
		return "✗" // ✗
	default:
		return "?"
	}
}

// NewSetupCmd creates the top-level setup command that bootstraps the greenledger environment.
func NewSetupCmd() *cobra.Command {
	var opts SetupOptions

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Bootstrap the greenledger environment",
		Long: `Sets up greenledger by creating its directories, initializing the
configuration file and checking that the ledger state and factor tables load.
Expired result cache entries are removed; --reset-cache removes all of them.

This command is idempotent. Existing configuration and state are preserved.`,
		Example: `  # Full setup
  greenledger setup

  # CI/CD setup (no TTY-dependent output)
  greenledger setup --non-interactive

  # Drop every cached calculation
  greenledger setup --reset-cache`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false,
		"Disable TTY-dependent output (status symbols, color)")
	cmd.Flags().BoolVar(&opts.ResetCache, "reset-cache", false,
		"Remove every cached result instead of only expired ones")

	return cmd
}

// runSetup runs every step even after a failure and returns an error only
// if a critical step failed.
func runSetup(cmd *cobra.Command, opts *SetupOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.FromContext(ctx)

	if !opts.NonInteractive && !isTerminal(os.Stdin) {
		opts.NonInteractive = true
	}

	cfg := config.GetGlobalConfig()
	result := &SetupResult{}
	record := func(steps ...StepResult) {
		for _, s := range steps {
			printStep(cmd, s, opts.NonInteractive)
			result.Steps = append(result.Steps, s)
		}
	}

	record(stepDisplayVersion())
	record(stepCreateDirectories(cfg)...)
	record(stepInitConfig(cfg))
	record(stepCheckStore(cfg))
	record(stepCheckFactors(cfg))
	record(stepMaintainCache(cfg, opts.ResetCache))

	for _, s := range result.Steps {
		if s.Status == StepError && s.Critical {
			result.HasErrors = true
		}
		if s.Status == StepWarning {
			result.HasWarnings = true
		}
	}

	printSummary(cmd, result)

	if result.HasErrors {
		log.Error().
			Ctx(ctx).
			Str("component", "setup").
			Msg("setup completed with critical errors")
		return errors.New("setup failed: one or more critical steps failed")
	}

	return nil
}

// printStep outputs a single step's status line.
func printStep(cmd *cobra.Command, step StepResult, nonInteractive bool) {
	marker := formatStatus(step.Status, nonInteractive)
	cmd.Printf("%s %s\n", marker, step.Message)
}

// printSummary outputs the final completion message.
func printSummary(cmd *cobra.Command, result *SetupResult) {
	cmd.Println()
	if result.HasErrors {
		cmd.Println("Setup completed with errors. Review the messages above for remediation steps.")
	} else {
		cmd.Println("Setup complete! Run 'greenledger footprint calc --input activity.yaml --user you' to get started.")
	}
}

// stepDisplayVersion reports the greenledger version and Go runtime.
func stepDisplayVersion() StepResult {
	return StepResult{
		Name:    "Version display",
		Status:  StepSuccess,
		Message: fmt.Sprintf("greenledger v%s (%s)", version.GetVersion(), runtime.Version()),
	}
}

// stepCreateDirectories creates the config, cache and log directories.
// Returns one StepResult per directory.
func stepCreateDirectories(cfg *config.Config) []StepResult {
	baseDir, err := config.GetConfigDir()
	if err != nil {
		return []StepResult{{
			Name:     "Directory creation",
			Status:   StepError,
			Message:  fmt.Sprintf("Cannot determine config directory: %v", err),
			Critical: true,
			Err:      err,
		}}
	}

	dirs := []string{baseDir, filepath.Dir(cfg.Store.Path)}
	if cfg.Cache.Enabled && cfg.Cache.Directory != "" {
		dirs = append(dirs, cfg.Cache.Directory)
	}
	if cfg.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(cfg.Logging.File))
	}

	var results []StepResult
	seen := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true

		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			results = append(results, StepResult{
				Name:     "Directory creation",
				Status:   StepSuccess,
				Message:  fmt.Sprintf("Directory exists: %s", dir),
				Critical: true,
			})
			continue
		}

		if mkErr := os.MkdirAll(dir, dirPermBase); mkErr != nil {
			results = append(results, StepResult{
				Name:   "Directory creation",
				Status: StepError,
				Message: fmt.Sprintf(
					"Failed to create %s: %v\n  Try: export %s=/path/to/writable/directory",
					dir, mkErr, config.EnvHome,
				),
				Critical: true,
				Err:      mkErr,
			})
			continue
		}

		results = append(results, StepResult{
			Name:     "Directory creation",
			Status:   StepSuccess,
			Message:  fmt.Sprintf("Created %s", dir),
			Critical: true,
		})
	}

	return results
}

// stepInitConfig writes the default config file if none exists.
func stepInitConfig(cfg *config.Config) StepResult {
	configPath := cfg.Path()

	if _, err := os.Stat(configPath); err == nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepSuccess,
			Message:  fmt.Sprintf("Config already exists (%s)", configPath),
			Critical: true,
		}
	}

	fresh := config.Defaults()
	fresh.SetPath(configPath)
	if err := fresh.Save(); err != nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepError,
			Message:  fmt.Sprintf("Failed to initialize config: %v", err),
			Critical: true,
			Err:      err,
		}
	}

	return StepResult{
		Name:     "Config initialization",
		Status:   StepSuccess,
		Message:  fmt.Sprintf("Initialized config (%s)", configPath),
		Critical: true,
	}
}

// stepCheckStore loads the state file. A corrupted file is critical because
// every ledger command would refuse to run.
func stepCheckStore(cfg *config.Config) StepResult {
	st, err := store.Open(cfg.Store.Path, store.WithHistoryLimit(cfg.Store.HistoryLimit))
	if err != nil {
		msg := fmt.Sprintf("Cannot load state file %s: %v", cfg.Store.Path, err)
		if errors.Is(err, store.ErrStoreCorrupted) {
			msg += "\n  Move the file aside to start with an empty ledger"
		}
		return StepResult{Name: "State check", Status: StepError, Message: msg, Critical: true, Err: err}
	}
	return StepResult{
		Name:     "State check",
		Status:   StepSuccess,
		Message:  fmt.Sprintf("State file ready (%s, %d users)", st.FilePath(), len(st.Users())),
		Critical: true,
	}
}

// stepCheckFactors loads configured factor tables. Failures are warnings:
// calculations still work with the built-in table.
func stepCheckFactors(cfg *config.Config) StepResult {
	registry, err := loadRegistry(cfg.Factors.Tables)
	if err != nil {
		return StepResult{
			Name:    "Factor tables",
			Status:  StepWarning,
			Message: fmt.Sprintf("Factor tables failed to load: %v", err),
			Err:     err,
		}
	}
	if _, err := registry.Resolve(cfg.Factors.Version); err != nil {
		return StepResult{
			Name:    "Factor tables",
			Status:  StepWarning,
			Message: fmt.Sprintf("factors.version %q does not resolve: %v", cfg.Factors.Version, err),
			Err:     err,
		}
	}
	return StepResult{
		Name:    "Factor tables",
		Status:  StepSuccess,
		Message: fmt.Sprintf("Factor tables available: %v", registry.Versions()),
	}
}

// stepMaintainCache prunes the result cache. Cache problems are warnings
// because calculations run without it.
func stepMaintainCache(cfg *config.Config, reset bool) StepResult {
	fs, err := openCacheStore(cfg.Cache)
	if err != nil {
		return StepResult{
			Name:    "Result cache",
			Status:  StepWarning,
			Message: fmt.Sprintf("Result cache unavailable: %v", err),
			Err:     err,
		}
	}
	if fs == nil {
		return StepResult{Name: "Result cache", Status: StepSkipped, Message: "Result cache disabled"}
	}

	action, prune := "Pruned expired entries", fs.CleanupExpired
	if reset {
		action, prune = "Cleared all entries", fs.Clear
	}
	if err := prune(); err != nil {
		return StepResult{
			Name:    "Result cache",
			Status:  StepWarning,
			Message: fmt.Sprintf("Result cache maintenance failed: %v", err),
			Err:     err,
		}
	}
	n, err := fs.Count()
	if err != nil {
		return StepResult{Name: "Result cache", Status: StepWarning, Message: err.Error(), Err: err}
	}
	return StepResult{
		Name:   "Result cache",
		Status: StepSuccess,
		Message: fmt.Sprintf("%s from %s (%d left, ttl %s)",
			action, fs.Dir(), n, cache.FormatDuration(fs.TTL())),
	}
}
