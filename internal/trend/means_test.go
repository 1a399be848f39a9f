package trend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greenledger/internal/greenops"
)

func writeMeans(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "means.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPeerMeans(t *testing.T) {
	means, err := LoadPeerMeans(writeMeans(t, "unit: t\ncategories:\n  Transport: 0.4\n  home: 0.25\n"))
	require.NoError(t, err)
	require.Len(t, means, 2)
	assert.Equal(t, "home", means[0].Category)
	assert.InDelta(t, 250.0, means[0].Emissions, 1e-9)
	assert.Equal(t, "transport", means[1].Category)
	assert.InDelta(t, 400.0, means[1].Emissions, 1e-9)
}

func TestLoadPeerMeans_DefaultsToKg(t *testing.T) {
	means, err := LoadPeerMeans(writeMeans(t, "categories:\n  food: 160\n"))
	require.NoError(t, err)
	require.Len(t, means, 1)
	assert.InDelta(t, 160.0, means[0].Emissions, 0)

	feed := NewSeededFeed(7, means, 0)
	bench, err := feed.Benchmark(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 160.0, bench.Total, 1e-9)
}

func TestLoadPeerMeans_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "unknown unit", content: "unit: stone\ncategories:\n  home: 1\n", wantErr: greenops.ErrInvalidUnit},
		{name: "negative", content: "categories:\n  home: -1\n", wantErr: greenops.ErrNegativeValue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadPeerMeans(writeMeans(t, tc.content))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err := LoadPeerMeans(writeMeans(t, "unit: kg\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no categories")

	_, err = LoadPeerMeans(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
