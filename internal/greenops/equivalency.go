// Package greenops turns footprint totals into relatable equivalencies such
// as miles driven or tree seedlings, and formats the numbers for display.
package greenops

import (
	"fmt"
	"math"
	"strings"

	"github.com/rshade/greenledger/internal/footprint"
)

// Kind identifies an equivalency.
type Kind int

const (
	MilesDriven Kind = iota
	SmartphonesCharged
	TreeSeedlings
	HomeDays
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case MilesDriven:
		return "MilesDriven"
	case SmartphonesCharged:
		return "SmartphonesCharged"
	case TreeSeedlings:
		return "TreeSeedlings"
	case HomeDays:
		return "HomeDays"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

type definition struct {
	kind   Kind
	factor float64
	label  string
	short  string
}

//nolint:gochecknoglobals // Constant lookup table.
var definitions = []definition{
	{MilesDriven, EPAMilesDrivenFactor, "miles driven", "mi"},
	{SmartphonesCharged, EPASmartphoneChargeFactor, "smartphones charged", "phones"},
	{TreeSeedlings, EPATreeSeedlingFactor, "tree seedlings grown for 10 years", "seedlings"},
	{HomeDays, EPAHomeDayFactor, "days of home electricity", "home-days"},
}

// Equivalency is one calculated comparison.
type Equivalency struct {
	Kind      Kind    `json:"kind"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
	Label     string  `json:"label"`
}

// Output is the full set of equivalencies for one footprint.
type Output struct {
	InputKg     float64       `json:"input_kg"`
	Results     []Equivalency `json:"results"`
	DisplayText string        `json:"display_text"`
	CompactText string        `json:"compact_text"`
	IsEmpty     bool          `json:"is_empty"`
}

// Calculate computes every equivalency for kg CO2e. Values below
// MinEquivalencyThresholdKg produce an empty output without error.
func Calculate(kg float64) (Output, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return Output{IsEmpty: true}, ErrCalculationOverflow
	}
	if kg < 0 {
		return Output{IsEmpty: true}, ErrNegativeValue
	}
	if kg < MinEquivalencyThresholdKg {
		return Output{InputKg: kg, IsEmpty: true}, nil
	}

	results := make([]Equivalency, 0, len(definitions))
	compact := make([]string, 0, len(definitions))
	for _, d := range definitions {
		v := kg / d.factor
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return Output{IsEmpty: true}, ErrCalculationOverflow
		}
		formatted := formatEquivalencyValue(v)
		results = append(results, Equivalency{Kind: d.kind, Value: v, Formatted: formatted, Label: d.label})
		compact = append(compact, formatted+" "+d.short)
	}

	return Output{
		InputKg: kg,
		Results: results,
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones",
			results[0].Formatted, results[1].Formatted),
		CompactText: "(≈ " + strings.Join(compact, ", ") + ")",
	}, nil
}

// ForResult computes equivalencies for a footprint's total.
func ForResult(r footprint.Result) (Output, error) {
	return Calculate(r.Total)
}

// Offset returns how many tree seedlings would absorb kg over ten years,
// rounded up.
func Offset(kg float64) int64 {
	if kg <= 0 {
		return 0
	}
	return int64(math.Ceil(kg / EPATreeSeedlingFactor))
}

func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
