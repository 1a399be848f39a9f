// Package activity validates raw lifestyle inputs and coerces them into
// uniform numeric quantities ready for footprint aggregation.
package activity

import "sort"

// Category names of the built-in schema.
const (
	CategoryTransport = "transport"
	CategoryHome      = "home"
	CategoryFood      = "food"
	CategoryShopping  = "shopping"
)

// Field names of the built-in schema.
const (
	FieldCarDistance     = "car_distance"
	FieldFlightHours     = "flight_hours"
	FieldTransitDistance = "transit_distance"

	FieldElectricityKWh = "electricity_kwh"
	FieldGasUnits       = "gas_units"
	FieldRenewablePct   = "renewable_pct"

	FieldMeatIndex    = "meat_index"
	FieldDairyIndex   = "dairy_index"
	FieldLocalFoodPct = "local_food_pct"

	FieldMonthlySpend  = "monthly_spend"
	FieldRecyclingRate = "recycling_rate"
)

// Kind is the value domain of a field.
type Kind int

const (
	// Quantity fields are absolute amounts and must be >= 0.
	Quantity Kind = iota
	// Percentage fields must lie in [0,100].
	Percentage
)

// String returns the kind name.
func (k Kind) String() string {
	if k == Percentage {
		return "percentage"
	}
	return "quantity"
}

// Schema maps category -> field -> kind.
type Schema map[string]map[string]Kind

// DefaultSchema returns the built-in categories. The returned value is a
// fresh copy and may be extended by the caller.
func DefaultSchema() Schema {
	return Schema{
		CategoryTransport: {
			FieldCarDistance:     Quantity,
			FieldFlightHours:     Quantity,
			FieldTransitDistance: Quantity,
		},
		CategoryHome: {
			FieldElectricityKWh: Quantity,
			FieldGasUnits:       Quantity,
			FieldRenewablePct:   Percentage,
		},
		CategoryFood: {
			FieldMeatIndex:    Percentage,
			FieldDairyIndex:   Percentage,
			FieldLocalFoodPct: Percentage,
		},
		CategoryShopping: {
			FieldMonthlySpend:  Quantity,
			FieldRecyclingRate: Percentage,
		},
	}
}

// BuiltinCategories lists the categories with dedicated formulas, in
// breakdown order.
func BuiltinCategories() []string {
	return []string{CategoryTransport, CategoryHome, CategoryFood, CategoryShopping}
}

// With returns a copy of s extended with an additional category whose fields
// are all quantities.
func (s Schema) With(category string, fields ...string) Schema {
	out := make(Schema, len(s)+1)
	for c, f := range s {
		inner := make(map[string]Kind, len(f))
		for name, k := range f {
			inner[name] = k
		}
		out[c] = inner
	}
	inner := make(map[string]Kind, len(fields))
	for _, f := range fields {
		inner[f] = Quantity
	}
	out[category] = inner
	return out
}

// Categories returns the schema categories: built-ins first in their fixed
// order, then extensions alphabetically.
func (s Schema) Categories() []string {
	var out []string
	builtin := make(map[string]bool)
	for _, c := range BuiltinCategories() {
		builtin[c] = true
		if _, ok := s[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range s {
		if !builtin[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
