package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/engine/cache"
	"github.com/rshade/greenledger/internal/store"
	"github.com/rshade/greenledger/pkg/version"
)

// newTestSetupCmd creates a testable setup command with captured output.
func newTestSetupCmd() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := NewSetupCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd, buf
}

// isolateSetup points GREENLEDGER_HOME at a not yet created temp subdir and
// resets the global config so it is rebuilt from there. Returns the home
// directory.
func isolateSetup(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "greenledger")
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvStorePath, "")
	t.Setenv(config.EnvLogFile, "")
	config.ResetGlobalConfigForTest()
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

// runTestSetup executes the setup command non-interactively.
func runTestSetup(t *testing.T) (string, error) {
	t.Helper()
	cmd, buf := newTestSetupCmd()
	cmd.SetArgs([]string{"--non-interactive"})
	err := cmd.Execute()
	return buf.String(), err
}

// TestFormatStatus verifies TTY and non-TTY status markers.
func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name           string
		status         StepStatus
		nonInteractive bool
		expected       string
	}{
		{"success_tty", StepSuccess, false, "✓"},
		{"warning_tty", StepWarning, false, "!"},
		{"skipped_tty", StepSkipped, false, "-"},
		{"error_tty", StepError, false, "✗"},
		{"success_non_interactive", StepSuccess, true, "[OK]"},
		{"warning_non_interactive", StepWarning, true, "[WARN]"},
		{"skipped_non_interactive", StepSkipped, true, "[SKIP]"},
		{"error_non_interactive", StepError, true, "[ERR]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatStatus(tt.status, tt.nonInteractive))
		})
	}
}

func TestStepDisplayVersion(t *testing.T) {
	step := stepDisplayVersion()

	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, version.GetVersion())
	assert.Contains(t, step.Message, runtime.Version())
}

func TestStepCreateDirectories(t *testing.T) {
	home := isolateSetup(t)
	cfg := config.Defaults()

	results := stepCreateDirectories(cfg)

	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, StepSuccess, r.Status, r.Message)
		assert.True(t, strings.HasPrefix(r.Message, "Created "), r.Message)
	}
	assert.DirExists(t, home)
	assert.DirExists(t, filepath.Join(home, "cache"))
}

func TestStepCreateDirectories_AlreadyExist(t *testing.T) {
	isolateSetup(t)
	cfg := config.Defaults()
	stepCreateDirectories(cfg)

	results := stepCreateDirectories(cfg)

	for _, r := range results {
		assert.Equal(t, StepSuccess, r.Status)
		assert.Contains(t, r.Message, "Directory exists")
	}
}

func TestStepCreateDirectories_Unwritable(t *testing.T) {
	home := isolateSetup(t)
	require.NoError(t, os.MkdirAll(home, 0o700))
	blocker := filepath.Join(home, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg := config.Defaults()
	cfg.Cache.Directory = filepath.Join(blocker, "cache")

	results := stepCreateDirectories(cfg)

	var failed []StepResult
	for _, r := range results {
		if r.Status == StepError {
			failed = append(failed, r)
		}
	}
	require.Len(t, failed, 1)
	assert.True(t, failed[0].Critical)
	assert.Contains(t, failed[0].Message, config.EnvHome)
}

func TestStepInitConfig(t *testing.T) {
	home := isolateSetup(t)
	cfg := config.Defaults()

	step := stepInitConfig(cfg)

	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, "Initialized config")
	assert.FileExists(t, filepath.Join(home, "config.yaml"))
}

func TestStepInitConfig_AlreadyExists(t *testing.T) {
	home := isolateSetup(t)
	require.NoError(t, os.MkdirAll(home, 0o700))
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  precision: 3\n"), 0o600))

	step := stepInitConfig(config.Defaults())

	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "output:\n  precision: 3\n", string(data), "existing config must be preserved")
}

func TestStepCheckStore(t *testing.T) {
	isolateSetup(t)
	cfg := config.Defaults()

	step := stepCheckStore(cfg)

	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, "0 users")
}

func TestStepCheckStore_Corrupted(t *testing.T) {
	isolateSetup(t)
	cfg := config.Defaults()
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o700))
	require.NoError(t, os.WriteFile(cfg.Store.Path, []byte("{not json"), 0o600))

	step := stepCheckStore(cfg)

	assert.Equal(t, StepError, step.Status)
	assert.True(t, step.Critical)
	assert.ErrorIs(t, step.Err, store.ErrStoreCorrupted)
	assert.Contains(t, step.Message, "Move the file aside")
}

func TestStepCheckFactors(t *testing.T) {
	cfg := config.Defaults()

	step := stepCheckFactors(cfg)
	assert.Equal(t, StepSuccess, step.Status)

	cfg.Factors.Version = "9.0.0"
	step = stepCheckFactors(cfg)
	assert.Equal(t, StepWarning, step.Status)
	assert.False(t, step.Critical)

	cfg.Factors.Tables = []string{filepath.Join(t.TempDir(), "missing.yaml")}
	step = stepCheckFactors(cfg)
	assert.Equal(t, StepWarning, step.Status)
	assert.Contains(t, step.Message, "failed to load")
}

func TestStepMaintainCache(t *testing.T) {
	for _, key := range []string{cache.EnvEnabled, cache.EnvTTL, cache.EnvDir} {
		t.Setenv(key, "")
	}
	cfg := config.Defaults()
	cfg.Cache.Directory = t.TempDir()
	cfg.Cache.TTLSeconds = 5400

	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := cache.NewFileStore(cfg.Cache.Directory, true, time.Hour, cache.WithClock(past))
	require.NoError(t, err)
	require.NoError(t, stale.Set("old", json.RawMessage(`{}`)))
	fresh, err := cache.NewFileStore(cfg.Cache.Directory, true, time.Hour)
	require.NoError(t, err)
	require.NoError(t, fresh.Set("new", json.RawMessage(`{}`)))

	step := stepMaintainCache(cfg, false)
	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, "Pruned expired entries")
	assert.Contains(t, step.Message, "(1 left, ttl 1h30m)")

	step = stepMaintainCache(cfg, true)
	assert.Equal(t, StepSuccess, step.Status)
	assert.Contains(t, step.Message, "Cleared all entries")
	assert.Contains(t, step.Message, "(0 left")

	cfg.Cache.Enabled = false
	step = stepMaintainCache(cfg, false)
	assert.Equal(t, StepSkipped, step.Status)
	assert.False(t, step.Critical)
}

func TestSetupFullRun(t *testing.T) {
	home := isolateSetup(t)

	output, err := runTestSetup(t)

	require.NoError(t, err)
	assert.Contains(t, output, "[OK] greenledger v")
	assert.Contains(t, output, "Initialized config")
	assert.Contains(t, output, "State file ready")
	assert.Contains(t, output, "Pruned expired entries")
	assert.Contains(t, output, "Setup complete!")
	assert.FileExists(t, filepath.Join(home, "config.yaml"))
}

func TestSetupIdempotency(t *testing.T) {
	isolateSetup(t)

	_, err := runTestSetup(t)
	require.NoError(t, err)
	output, err := runTestSetup(t)

	require.NoError(t, err)
	assert.Contains(t, output, "Config already exists")
	assert.NotContains(t, output, "[ERR]")
}

func TestSetupExitCodeWithCriticalFailure(t *testing.T) {
	home := isolateSetup(t)
	require.NoError(t, os.MkdirAll(home, 0o700))
	statePath := filepath.Join(home, "state.json")
	require.NoError(t, os.WriteFile(statePath, []byte("[]"), 0o600))

	output, err := runTestSetup(t)

	require.Error(t, err)
	assert.Contains(t, output, "[ERR]")
	assert.Contains(t, output, "Setup completed with errors")
}

func TestSetupWarningsDoNotFail(t *testing.T) {
	isolateSetup(t)
	t.Setenv(config.EnvFactorVersion, "42.0.0")

	output, err := runTestSetup(t)

	require.NoError(t, err)
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "Setup complete!")
}
