// Package footprint applies an emission factor table to normalized activity
// inputs and produces an immutable, categorized footprint snapshot.
package footprint

import (
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/greenledger/internal/activity"
	"github.com/rshade/greenledger/internal/factors"
)

// CategoryAll addresses the grand total in Result.Measure.
const CategoryAll = "all"

// percentMultiplier converts a ratio to a percentage.
const percentMultiplier = 100.0

// Share is one category's emissions and its fraction of the total.
type Share struct {
	Category   string  `json:"category"   yaml:"category"`
	Emissions  float64 `json:"emissions"  yaml:"emissions"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// Result is a footprint snapshot. A new calculation produces a new Result;
// existing results are never modified.
type Result struct {
	ID            string    `json:"id"             yaml:"id"`
	CreatedAt     time.Time `json:"created_at"     yaml:"created_at"`
	FactorVersion string    `json:"factor_version" yaml:"factor_version"`
	Breakdown     []Share   `json:"breakdown"      yaml:"breakdown"`
	Total         float64   `json:"total"          yaml:"total"`
}

// Emissions returns the emissions recorded for category.
func (r Result) Emissions(category string) (float64, bool) {
	for _, s := range r.Breakdown {
		if s.Category == category {
			return s.Emissions, true
		}
	}
	return 0, false
}

// Percentage returns category's share of the total, or 0 when absent.
func (r Result) Percentage(category string) float64 {
	for _, s := range r.Breakdown {
		if s.Category == category {
			return s.Percentage
		}
	}
	return 0
}

// Measure returns the total for CategoryAll and the category's emissions
// otherwise.
func (r Result) Measure(category string) float64 {
	if category == "" || category == CategoryAll {
		return r.Total
	}
	v, _ := r.Emissions(category)
	return v
}

// Largest returns up to n non-zero shares ordered by emissions, largest first.
func (r Result) Largest(n int) []Share {
	shares := make([]Share, 0, len(r.Breakdown))
	for _, s := range r.Breakdown {
		if s.Emissions > 0 {
			shares = append(shares, s)
		}
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Emissions > shares[j].Emissions
	})
	if n >= 0 && len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

// Compute produces a footprint stamped with the current time.
func Compute(n activity.Normalized, t factors.Table) Result {
	return ComputeAt(n, t, time.Now().UTC())
}

// ComputeAt produces a footprint stamped with at.
//
// Every category value is >= 0, Total is the sum of the category values in
// breakdown order, and percentages are all 0 when Total is 0. Extension
// categories without a matching linear factor contribute 0.
func ComputeAt(n activity.Normalized, t factors.Table, at time.Time) Result {
	categories := n.Categories()
	breakdown := make([]Share, 0, len(categories))

	var total float64
	for _, c := range categories {
		e := categoryEmissions(c, n, t)
		breakdown = append(breakdown, Share{Category: c, Emissions: e})
		total += e
	}

	if total > 0 {
		for i := range breakdown {
			breakdown[i].Percentage = breakdown[i].Emissions / total * percentMultiplier
		}
	}

	return Result{
		ID:            ulid.Make().String(),
		CreatedAt:     at,
		FactorVersion: t.Version,
		Breakdown:     breakdown,
		Total:         total,
	}
}

func categoryEmissions(category string, n activity.Normalized, t factors.Table) float64 {
	switch category {
	case activity.CategoryTransport:
		return Transport(
			n.Value(category, activity.FieldCarDistance),
			n.Value(category, activity.FieldFlightHours),
			n.Value(category, activity.FieldTransitDistance),
			t.Transport,
		)
	case activity.CategoryHome:
		return Home(
			n.Value(category, activity.FieldElectricityKWh),
			n.Value(category, activity.FieldGasUnits),
			n.Value(category, activity.FieldRenewablePct),
			t.Home,
		)
	case activity.CategoryFood:
		return Food(
			n.Value(category, activity.FieldMeatIndex),
			n.Value(category, activity.FieldDairyIndex),
			n.Value(category, activity.FieldLocalFoodPct),
			t.Food,
		)
	case activity.CategoryShopping:
		return Shopping(
			n.Value(category, activity.FieldMonthlySpend),
			n.Value(category, activity.FieldRecyclingRate),
			t.Shopping,
		)
	default:
		var sum float64
		for _, field := range n.Fields(category) {
			if f, ok := t.LinearFactor(category, field); ok {
				sum += n.Value(category, field) * f
			}
		}
		return sum
	}
}

// Transport is car*F_car + flight*F_flight + transit*F_transit.
func Transport(carDistance, flightHours, transitDistance float64, f factors.TransportFactors) float64 {
	return carDistance*f.CarPerMile + flightHours*f.FlightPerHour + transitDistance*f.TransitPerMile
}

// Home is electricity*F_elec*(1-renewable%) + gas*F_gas.
func Home(electricityKWh, gasUnits, renewablePct float64, f factors.HomeFactors) float64 {
	return electricityKWh*f.ElectricityPerKWh*mitigation(renewablePct) + gasUnits*f.GasPerUnit
}

// Food weights meat and dairy indices against the baseline index, scaled by
// the share of food that is not locally sourced.
func Food(meatIndex, dairyIndex, localFoodPct float64, f factors.FoodFactors) float64 {
	if f.Baseline <= 0 {
		return 0
	}
	diet := meatIndex/f.Baseline*f.MeatWeight + dairyIndex/f.Baseline*f.DairyWeight
	return diet * mitigation(localFoodPct)
}

// Shopping is spend*F_spend*(1-recycling%).
func Shopping(monthlySpend, recyclingRate float64, f factors.ShoppingFactors) float64 {
	return monthlySpend * f.SpendPerUnit * mitigation(recyclingRate)
}

// mitigation converts a validated percentage to the remaining fraction.
func mitigation(pct float64) float64 {
	return 1 - pct/percentMultiplier
}
