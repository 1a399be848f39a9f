package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate_Defaults(t *testing.T) {
	isolateCLI(t)

	out, errOut, err := runCLI(t, "config", "validate", "--verbose")

	require.NoError(t, err)
	output := out + errOut
	assert.Contains(t, output, "Configuration is valid")
	assert.Contains(t, output, "Factor table: 1.0.0")
	assert.Contains(t, output, "Tiers: sapling 500, grove 2000, forest 5000")
	assert.Contains(t, output, "Log file: (stderr)")
}

func TestConfigValidate_PeerMeansFile(t *testing.T) {
	home := isolateCLI(t)
	means := writeFile(t, t.TempDir(), "means.yaml", "unit: t\ncategories:\n  transport: 0.5\n")
	writeFile(t, home, "config.yaml", "trend:\n  peer_enabled: true\n  peer_spread: 0\n  peer_means_file: "+means+"\n")

	out := mustRunCLI(t, "config", "validate", "--verbose")

	assert.Contains(t, out, "Peer means: "+means)
}

func TestConfigValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "malformed yaml",
			content: func(*testing.T) string { return "goals: [unclosed\n" },
			wantMsg: "parsing config",
		},
		{
			name:    "inverted target bounds",
			content: func(*testing.T) string { return "goals:\n  min_target_pct: 50\n  max_target_pct: 10\n" },
			wantMsg: "goals: target bounds",
		},
		{
			name:    "unknown factor version",
			content: func(*testing.T) string { return "factors:\n  version: 7.0.0\n" },
			wantMsg: "factors.version",
		},
		{
			name: "missing factor table",
			content: func(*testing.T) string {
				return "factors:\n  version: latest\n  tables:\n    - /nonexistent/table.yaml\n"
			},
			wantMsg: "loading factor table",
		},
		{
			name: "invalid catalog",
			content: func(t *testing.T) string {
				path := writeFile(t, t.TempDir(), "catalog.yaml", "items:\n  - id: broken\n    cost: -1\n")
				return "rewards:\n  catalog_file: " + path + "\n  tiers:\n    sapling: 500\n    grove: 2000\n    forest: 5000\n"
			},
			wantMsg: "rewards.catalog_file",
		},
		{
			name: "peer means in unknown unit",
			content: func(t *testing.T) string {
				path := writeFile(t, t.TempDir(), "means.yaml", "unit: stone\ncategories:\n  home: 3\n")
				return "trend:\n  peer_means_file: " + path + "\n"
			},
			wantMsg: "trend.peer_means_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolateCLI(t)
			writeFile(t, home, "config.yaml", tt.content(t))

			_, _, err := runCLI(t, "config", "validate")

			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration validation failed")
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

// A malformed config file is reported by validate but does not stop other commands.
func TestConfigValidate_MalformedFileDoesNotBreakCommands(t *testing.T) {
	home := isolateCLI(t)
	writeFile(t, home, "config.yaml", "::: not yaml :::\n\t- [")

	out := mustRunCLI(t, "factors", "list")

	assert.Contains(t, out, "1.0.0")
}
