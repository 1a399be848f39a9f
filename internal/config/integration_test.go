package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHome points the home directory at a temp dir and clears GREENLEDGER_HOME.
func stubHome(t *testing.T) string {
	t.Helper()
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("USERPROFILE", tmpHome)
	t.Setenv(EnvHome, "")
	return tmpHome
}

func TestGlobalConfig(t *testing.T) {
	stubHome(t)
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	cfg := GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, FormatTable, cfg.Output.DefaultFormat)

	assert.Same(t, cfg, GetGlobalConfig())

	ResetGlobalConfigForTest()
	assert.NotSame(t, cfg, GetGlobalConfig())
}

func TestSetGlobalConfig(t *testing.T) {
	stubHome(t)
	t.Cleanup(ResetGlobalConfigForTest)

	custom := Defaults()
	custom.Output.DefaultFormat = FormatJSON
	SetGlobalConfig(custom)

	assert.Same(t, custom, GetGlobalConfig())
	assert.Equal(t, FormatJSON, GetDefaultOutputFormat())
}

func TestConfigGetters(t *testing.T) {
	stubHome(t)
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	cfg := GetGlobalConfig()
	cfg.Output.DefaultFormat = "json"
	cfg.Output.Precision = 4
	cfg.Logging.Level = "debug"
	cfg.Logging.File = "/tmp/test.log"
	cfg.Factors.Version = "1.0.0"

	assert.Equal(t, "json", GetDefaultOutputFormat())
	assert.Equal(t, 4, GetOutputPrecision())
	assert.Equal(t, "debug", GetLogLevel())
	assert.Equal(t, "/tmp/test.log", GetLogFile())
	assert.Equal(t, "1.0.0", GetFactorVersion())
}

func TestEnsureConfigDir(t *testing.T) {
	tmpHome := stubHome(t)

	require.NoError(t, EnsureConfigDir())

	stat, err := os.Stat(filepath.Join(tmpHome, ".greenledger"))
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestEnsureLogDir(t *testing.T) {
	stubHome(t)
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	tmpDir := t.TempDir()
	GetGlobalConfig().Logging.File = filepath.Join(tmpDir, "logs", "subdir", "test.log")

	require.NoError(t, EnsureLogDir())

	stat, err := os.Stat(filepath.Join(tmpDir, "logs", "subdir"))
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestEnsureLogDirError(t *testing.T) {
	stubHome(t)
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	// A regular file cannot be used as a directory.
	blocker := filepath.Join(t.TempDir(), "test-file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	GetGlobalConfig().Logging.File = filepath.Join(blocker, "subdir", "test.log")

	assert.Error(t, EnsureLogDir())
}

func TestGetConfigDir(t *testing.T) {
	tmpHome := stubHome(t)

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpHome, ".greenledger"), dir)

	t.Setenv(EnvHome, "/custom/home")
	dir, err = GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/home", dir)
}

func TestGetCacheDir(t *testing.T) {
	stubHome(t)

	dir, err := GetCacheDir()
	require.NoError(t, err)

	configDir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configDir, "cache"), dir)
}

func TestEnsureSubDirs(t *testing.T) {
	stubHome(t)
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	require.NoError(t, EnsureSubDirs())

	configDir, err := GetConfigDir()
	require.NoError(t, err)
	assert.DirExists(t, configDir)
	assert.DirExists(t, GetGlobalConfig().Cache.Directory)
}

func TestToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json"}
	got := lc.ToLoggingConfig()
	assert.Equal(t, "stderr", got.Output)
	assert.Equal(t, "debug", got.Level)
	assert.False(t, got.Caller)

	lc = LoggingConfig{Level: "trace", Format: "console", File: "/tmp/gl.log"}
	got = lc.ToLoggingConfig()
	assert.Equal(t, "file", got.Output)
	assert.Equal(t, "/tmp/gl.log", got.File)
	assert.True(t, got.Caller)
}
