package factors

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	tbl := Default()
	require.NoError(t, tbl.Validate())
	assert.Equal(t, DefaultVersion, tbl.Version)
	assert.InDelta(t, 0.404, tbl.Transport.CarPerMile, 1e-12)
	assert.InDelta(t, 0.85, tbl.Home.ElectricityPerKWh, 1e-12)
}

func TestTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Table)
		wantErr error
	}{
		{
			name:    "bad version",
			mutate:  func(t *Table) { t.Version = "one" },
			wantErr: ErrInvalidVersion,
		},
		{
			name:    "negative factor",
			mutate:  func(t *Table) { t.Transport.CarPerMile = -0.1 },
			wantErr: ErrInvalidFactor,
		},
		{
			name:    "NaN factor",
			mutate:  func(t *Table) { t.Home.GasPerUnit = math.NaN() },
			wantErr: ErrInvalidFactor,
		},
		{
			name:    "zero food baseline",
			mutate:  func(t *Table) { t.Food.Baseline = 0 },
			wantErr: ErrInvalidFactor,
		},
		{
			name: "negative linear factor",
			mutate: func(t *Table) {
				t.Linear = map[string]map[string]float64{"water": {"liters": -1}}
			},
			wantErr: ErrInvalidFactor,
		},
		{
			name: "valid linear factor",
			mutate: func(t *Table) {
				t.Linear = map[string]map[string]float64{"water": {"liters": 0.0003}}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl := Default()
			tc.mutate(&tbl)
			err := tbl.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLinearFactor(t *testing.T) {
	tbl := Default()
	tbl.Linear = map[string]map[string]float64{"water": {"liters": 0.0003}}

	f, ok := tbl.LinearFactor("water", "liters")
	assert.True(t, ok)
	assert.InDelta(t, 0.0003, f, 1e-12)

	_, ok = tbl.LinearFactor("water", "gallons")
	assert.False(t, ok)
	_, ok = tbl.LinearFactor("pets", "cats")
	assert.False(t, ok)
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "v2.yaml")
		content := `version: 2.0.0
transport:
  car_per_mile: 0.39
  flight_per_hour: 85
  transit_per_mile: 0.12
home:
  electricity_per_kwh: 0.7
  gas_per_unit: 5.0
food:
  baseline: 50
  meat_weight: 110
  dairy_weight: 40
shopping:
  spend_per_unit: 0.25
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		tbl, err := LoadTable(path)
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", tbl.Version)
		assert.InDelta(t, 0.7, tbl.Home.ElectricityPerKWh, 1e-12)
	})

	t.Run("invalid table", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: 1.0.0\nfood:\n  baseline: 0\n"), 0o600))
		_, err := LoadTable(path)
		assert.ErrorIs(t, err, ErrInvalidFactor)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTable(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestRegistry_Resolve(t *testing.T) {
	v11 := Default()
	v11.Version = "1.1.0"
	v2 := Default()
	v2.Version = "2.0.0"
	v2.Home.ElectricityPerKWh = 0.5

	reg, err := NewRegistry(Default(), v2, v11)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.1.0", "2.0.0"}, reg.Versions())

	tests := []struct {
		spec    string
		want    string
		wantErr bool
	}{
		{spec: "", want: "2.0.0"},
		{spec: "latest", want: "2.0.0"},
		{spec: "1.0.0", want: "1.0.0"},
		{spec: "1.1", want: "1.1.0"},
		{spec: "^1.0", want: "1.1.0"},
		{spec: "~1.0.0", want: "1.0.0"},
		{spec: "3.0.0", wantErr: true},
		{spec: ">= 5", wantErr: true},
		{spec: "not a version", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			tbl, resolveErr := reg.Resolve(tc.spec)
			if tc.wantErr {
				assert.ErrorIs(t, resolveErr, ErrUnknownVersion)
				return
			}
			require.NoError(t, resolveErr)
			assert.Equal(t, tc.want, tbl.Version)
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultVersion}, reg.Versions())

	assert.ErrorIs(t, reg.Register(Default()), ErrDuplicateVersion)

	bad := Default()
	bad.Version = "2.0.0"
	bad.Shopping.SpendPerUnit = -1
	assert.ErrorIs(t, reg.Register(bad), ErrInvalidFactor)
}
