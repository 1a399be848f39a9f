// Package factors holds the versioned emission factor tables used to turn
// activity quantities into kg CO2e.
//
// The default constants are illustrative sample values rather than an
// authoritative methodology. Deployments are expected to register their own
// tables; every footprint records which table version produced it.
package factors

import (
	"fmt"
	"math"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// DefaultVersion is the version of the built-in table.
const DefaultVersion = "1.0.0"

// TransportFactors are kg CO2e per unit of travel.
type TransportFactors struct {
	// CarPerMile is kg CO2e per mile driven.
	CarPerMile float64 `yaml:"car_per_mile" json:"car_per_mile"`
	// FlightPerHour is kg CO2e per hour flown.
	FlightPerHour float64 `yaml:"flight_per_hour" json:"flight_per_hour"`
	// TransitPerMile is kg CO2e per mile of public transit.
	TransitPerMile float64 `yaml:"transit_per_mile" json:"transit_per_mile"`
}

// HomeFactors are kg CO2e per unit of household energy.
type HomeFactors struct {
	ElectricityPerKWh float64 `yaml:"electricity_per_kwh" json:"electricity_per_kwh"`
	GasPerUnit        float64 `yaml:"gas_per_unit"        json:"gas_per_unit"`
}

// FoodFactors weight diet indices against a reference baseline index.
type FoodFactors struct {
	// Baseline is the index value that yields exactly the weight below.
	Baseline    float64 `yaml:"baseline"     json:"baseline"`
	MeatWeight  float64 `yaml:"meat_weight"  json:"meat_weight"`
	DairyWeight float64 `yaml:"dairy_weight" json:"dairy_weight"`
}

// ShoppingFactors are kg CO2e per currency unit spent.
type ShoppingFactors struct {
	SpendPerUnit float64 `yaml:"spend_per_unit" json:"spend_per_unit"`
}

// Table is one version of the emission factor constants.
type Table struct {
	Version   string           `yaml:"version"   json:"version"`
	Transport TransportFactors `yaml:"transport" json:"transport"`
	Home      HomeFactors      `yaml:"home"      json:"home"`
	Food      FoodFactors      `yaml:"food"      json:"food"`
	Shopping  ShoppingFactors  `yaml:"shopping"  json:"shopping"`

	// Linear holds factors for extension categories: category -> field -> kg CO2e per unit.
	Linear map[string]map[string]float64 `yaml:"linear,omitempty" json:"linear,omitempty"`
}

// Default returns the built-in table.
func Default() Table {
	return Table{
		Version: DefaultVersion,
		Transport: TransportFactors{
			CarPerMile:     0.404,
			FlightPerHour:  90,
			TransitPerMile: 0.14,
		},
		Home: HomeFactors{
			ElectricityPerKWh: 0.85,
			GasPerUnit:        5.3,
		},
		Food: FoodFactors{
			Baseline:    50,
			MeatWeight:  120,
			DairyWeight: 45,
		},
		Shopping: ShoppingFactors{
			SpendPerUnit: 0.3,
		},
	}
}

// LinearFactor returns the factor for an extension category field.
func (t Table) LinearFactor(category, field string) (float64, bool) {
	fields, ok := t.Linear[category]
	if !ok {
		return 0, false
	}
	f, ok := fields[field]
	return f, ok
}

// SemVer parses the table version.
func (t Table) SemVer() (*semver.Version, error) {
	v, err := semver.NewVersion(t.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, t.Version)
	}
	return v, nil
}

// Validate checks that every constant is finite and non-negative and that the
// version parses as semver.
func (t Table) Validate() error {
	if _, err := t.SemVer(); err != nil {
		return err
	}

	named := []struct {
		name  string
		value float64
	}{
		{"transport.car_per_mile", t.Transport.CarPerMile},
		{"transport.flight_per_hour", t.Transport.FlightPerHour},
		{"transport.transit_per_mile", t.Transport.TransitPerMile},
		{"home.electricity_per_kwh", t.Home.ElectricityPerKWh},
		{"home.gas_per_unit", t.Home.GasPerUnit},
		{"food.baseline", t.Food.Baseline},
		{"food.meat_weight", t.Food.MeatWeight},
		{"food.dairy_weight", t.Food.DairyWeight},
		{"shopping.spend_per_unit", t.Shopping.SpendPerUnit},
	}
	for _, n := range named {
		if err := checkFactor(n.name, n.value); err != nil {
			return err
		}
	}
	if t.Food.Baseline <= 0 {
		return fmt.Errorf("%w: food.baseline must be positive", ErrInvalidFactor)
	}

	for category, fields := range t.Linear {
		for field, v := range fields {
			if err := checkFactor(category+"."+field, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFactor(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is not finite", ErrInvalidFactor, name)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s is negative (%g)", ErrInvalidFactor, name, v)
	}
	return nil
}

// LoadTable reads and validates a YAML factor table.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading factor table %s: %w", path, err)
	}

	var t Table
	if err = yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parsing factor table %s: %w", path, err)
	}
	if err = t.Validate(); err != nil {
		return Table{}, fmt.Errorf("factor table %s: %w", path, err)
	}
	return t, nil
}
