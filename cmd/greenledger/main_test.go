package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greenledger/internal/cli"
	"github.com/rshade/greenledger/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		require.NotNil(t, root)
		assert.Equal(t, "greenledger", root.Use)
		assert.Equal(t, version.GetVersion(), root.Version)
	})
}

func TestRun_Help(t *testing.T) {
	t.Setenv("GREENLEDGER_HOME", t.TempDir())
	t.Setenv("GREENLEDGER_LOG_LEVEL", "error")
	t.Chdir(t.TempDir())

	root := cli.NewRootCmd(version.GetVersion())
	root.SetArgs([]string{"--help"})
	root.SetOut(io.Discard)

	require.NoError(t, root.Execute())
}
