package footprint

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greenledger/internal/activity"
	"github.com/rshade/greenledger/internal/factors"
)

var fixedTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func mustNormalize(t *testing.T, raw activity.Input) activity.Normalized {
	t.Helper()
	n, err := activity.Normalize(raw)
	require.NoError(t, err)
	return n
}

func TestComputeAt_CarOnly(t *testing.T) {
	n := mustNormalize(t, activity.Input{
		activity.CategoryTransport: {activity.FieldCarDistance: 1000},
	})

	r := ComputeAt(n, factors.Default(), fixedTime)

	transport, ok := r.Emissions(activity.CategoryTransport)
	require.True(t, ok)
	assert.InDelta(t, 404.0, transport, 1e-9)
	assert.InDelta(t, 404.0, r.Total, 1e-9)
	assert.InDelta(t, 100.0, r.Percentage(activity.CategoryTransport), 1e-9)
	assert.Zero(t, r.Percentage(activity.CategoryHome))
	assert.Equal(t, factors.DefaultVersion, r.FactorVersion)
	assert.Equal(t, fixedTime, r.CreatedAt)
	assert.NotEmpty(t, r.ID)
}

func TestComputeAt_HalfRenewableHome(t *testing.T) {
	n := mustNormalize(t, activity.Input{
		activity.CategoryHome: {
			activity.FieldElectricityKWh: 300,
			activity.FieldRenewablePct:   50,
		},
	})

	r := ComputeAt(n, factors.Default(), fixedTime)
	home, _ := r.Emissions(activity.CategoryHome)
	assert.InDelta(t, 127.5, home, 1e-9)
}

func TestComputeAt_ZeroTotal(t *testing.T) {
	r := ComputeAt(mustNormalize(t, activity.Input{}), factors.Default(), fixedTime)

	assert.Zero(t, r.Total)
	require.Len(t, r.Breakdown, len(activity.BuiltinCategories()))
	for _, s := range r.Breakdown {
		assert.Zero(t, s.Emissions, s.Category)
		assert.Zero(t, s.Percentage, s.Category)
	}
}

func TestComputeAt_FoodAndShopping(t *testing.T) {
	tbl := factors.Default()
	n := mustNormalize(t, activity.Input{
		activity.CategoryFood: {
			activity.FieldMeatIndex:    50,
			activity.FieldDairyIndex:   100,
			activity.FieldLocalFoodPct: 25,
		},
		activity.CategoryShopping: {
			activity.FieldMonthlySpend:  200,
			activity.FieldRecyclingRate: 40,
		},
	})

	r := ComputeAt(n, tbl, fixedTime)

	food, _ := r.Emissions(activity.CategoryFood)
	wantFood := (50.0/50*120 + 100.0/50*45) * 0.75
	assert.InDelta(t, wantFood, food, 1e-9)

	shopping, _ := r.Emissions(activity.CategoryShopping)
	assert.InDelta(t, 200*0.3*0.6, shopping, 1e-9)
}

func TestComputeAt_Invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	tbl := factors.Default()

	for i := range 500 {
		raw := activity.Input{
			activity.CategoryTransport: {
				activity.FieldCarDistance:     rng.Float64() * 5000,
				activity.FieldFlightHours:     rng.Float64() * 40,
				activity.FieldTransitDistance: rng.Float64() * 800,
			},
			activity.CategoryHome: {
				activity.FieldElectricityKWh: rng.Float64() * 2000,
				activity.FieldGasUnits:       rng.Float64() * 100,
				activity.FieldRenewablePct:   rng.Float64() * 100,
			},
			activity.CategoryFood: {
				activity.FieldMeatIndex:    rng.Float64() * 100,
				activity.FieldDairyIndex:   rng.Float64() * 100,
				activity.FieldLocalFoodPct: rng.Float64() * 100,
			},
			activity.CategoryShopping: {
				activity.FieldMonthlySpend:  rng.Float64() * 3000,
				activity.FieldRecyclingRate: rng.Float64() * 100,
			},
		}
		r := ComputeAt(mustNormalize(t, raw), tbl, fixedTime)

		var sum, pct float64
		for _, s := range r.Breakdown {
			assert.GreaterOrEqual(t, s.Emissions, 0.0, "iteration %d %s", i, s.Category)
			sum += s.Emissions
			pct += s.Percentage
		}
		assert.InDelta(t, sum, r.Total, 1e-9, "iteration %d", i)
		if r.Total > 0 {
			assert.InDelta(t, 100.0, pct, 1e-6, "iteration %d", i)
		}
	}
}

func TestHome_RenewableMonotonic(t *testing.T) {
	f := factors.Default().Home
	const kwh, gas = 400.0, 12.0

	prev := Home(kwh, gas, 0, f)
	for pct := 5.0; pct <= 100; pct += 5 {
		cur := Home(kwh, gas, pct, f)
		assert.Less(t, cur, prev, "renewable %.0f%%", pct)
		prev = cur
	}
	assert.Equal(t, gas*f.GasPerUnit, Home(kwh, gas, 100, f))
}

func TestMitigationFields_Monotonic(t *testing.T) {
	tbl := factors.Default()

	t.Run("local food", func(t *testing.T) {
		assert.Less(t, Food(60, 60, 80, tbl.Food), Food(60, 60, 20, tbl.Food))
		assert.Zero(t, Food(60, 60, 100, tbl.Food))
	})

	t.Run("recycling", func(t *testing.T) {
		assert.Less(t, Shopping(500, 70, tbl.Shopping), Shopping(500, 10, tbl.Shopping))
		assert.Zero(t, Shopping(500, 100, tbl.Shopping))
	})

	t.Run("zero base quantity stays zero", func(t *testing.T) {
		assert.Zero(t, Shopping(0, 0, tbl.Shopping))
		assert.Zero(t, Shopping(0, 90, tbl.Shopping))
	})
}

func TestFood_NonPositiveBaseline(t *testing.T) {
	assert.Zero(t, Food(50, 50, 0, factors.FoodFactors{Baseline: 0, MeatWeight: 10}))
}

func TestComputeAt_ExtensionCategory(t *testing.T) {
	schema := activity.DefaultSchema().With("water", "liters", "bottles")
	n, err := schema.Normalize(activity.Input{"water": {"liters": 1000, "bottles": 20}})
	require.NoError(t, err)

	tbl := factors.Default()
	tbl.Linear = map[string]map[string]float64{"water": {"liters": 0.001}}

	r := ComputeAt(n, tbl, fixedTime)
	water, ok := r.Emissions("water")
	require.True(t, ok)
	assert.InDelta(t, 1.0, water, 1e-12, "fields without a factor contribute nothing")
	assert.InDelta(t, 100.0, r.Percentage("water"), 1e-9)
	assert.Equal(t, "water", r.Breakdown[len(r.Breakdown)-1].Category)
}

func TestComputeAt_DoesNotMutateInputs(t *testing.T) {
	tbl := factors.Default()
	n := mustNormalize(t, activity.Input{activity.CategoryTransport: {activity.FieldCarDistance: 10}})
	before := n.Canonical()

	_ = ComputeAt(n, tbl, fixedTime)

	assert.Equal(t, before, n.Canonical())
	assert.Equal(t, factors.Default(), tbl)
}

func TestResult_MeasureAndLargest(t *testing.T) {
	r := Result{
		Breakdown: []Share{
			{Category: "transport", Emissions: 10},
			{Category: "home", Emissions: 30},
			{Category: "food", Emissions: 0},
			{Category: "shopping", Emissions: 20},
		},
		Total: 60,
	}

	assert.InDelta(t, 60.0, r.Measure(CategoryAll), 1e-12)
	assert.InDelta(t, 60.0, r.Measure(""), 1e-12)
	assert.InDelta(t, 30.0, r.Measure("home"), 1e-12)
	assert.Zero(t, r.Measure("water"))

	largest := r.Largest(2)
	require.Len(t, largest, 2)
	assert.Equal(t, "home", largest[0].Category)
	assert.Equal(t, "shopping", largest[1].Category)

	assert.Len(t, r.Largest(10), 3, "zero categories are skipped")
}
