package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greenledger/internal/cli"
	"github.com/rshade/greenledger/internal/config"
)

// isolateCLI points every greenledger location at a temp home, clears
// GREENLEDGER_* overrides and moves into an empty working directory so no
// project overlay is discovered. Returns the home directory.
func isolateCLI(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "error")
	for _, key := range []string{
		config.EnvLogFormat, config.EnvLogFile, config.EnvStorePath,
		config.EnvFactorVersion, config.EnvOutputFormat, config.EnvProjectDir,
		"GREENLEDGER_PEER_SEED", "GREENLEDGER_CACHE_DIR",
		"GREENLEDGER_CACHE_TTL", "GREENLEDGER_CACHE_ENABLED",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
	t.Cleanup(func() {
		config.ResetGlobalConfigForTest()
		config.SetResolvedProjectDir("")
	})
	return home
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRunCLI fails the test when the command returns an error.
func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := runCLI(t, args...)
	require.NoError(t, err, "stderr: %s", errOut)
	return out
}

// decodeJSON unmarshals command output into a value of type T.
func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), "output: %s", out)
	return v
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd_Help(t *testing.T) {
	isolateCLI(t)

	out := mustRunCLI(t, "--help")

	for _, sub := range []string{"footprint", "factors", "trend", "rewards", "goal", "config", "setup"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	isolateCLI(t)

	_, _, err := runCLI(t, "bogus")

	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.ExitCode(err))
}

func TestRootCmd_StoreFlagOverridesConfig(t *testing.T) {
	isolateCLI(t)
	storePath := filepath.Join(t.TempDir(), "custom", "state.json")

	mustRunCLI(t, "--store", storePath, "rewards", "earn", "--user", "alice", "--amount", "10")

	assert.FileExists(t, storePath)
}

func TestRootCmd_ExplicitConfigMustExist(t *testing.T) {
	isolateCLI(t)

	_, _, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "factors", "list")

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	isolateCLI(t)

	_, _, err := runCLI(t, "factors", "list", "--output", "xml")

	require.Error(t, err)
	assert.Equal(t, cli.ExitInvalid, cli.ExitCode(err))
}

func TestRootCmd_OutputFormatFromEnv(t *testing.T) {
	isolateCLI(t)
	t.Setenv(config.EnvOutputFormat, "json")

	out := mustRunCLI(t, "rewards", "balance", "--user", "alice")

	view := decodeJSON[map[string]any](t, out)
	assert.Equal(t, "alice", view["user_id"])
}
