package rewards

import (
	"fmt"
	"strings"
)

// Tier is a progression level derived from lifetime tokens earned.
type Tier int

const (
	TierSeedling Tier = iota
	TierSapling
	TierGrove
	TierForest
)

// Lifetime earned tokens needed to reach each tier.
const (
	SaplingThreshold int64 = 500
	GroveThreshold   int64 = 2000
	ForestThreshold  int64 = 5000
)

var tierNames = [...]string{"seedling", "sapling", "grove", "forest"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text is seedling.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier parses a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TierSeedling, nil
	}
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return TierSeedling, fmt.Errorf("unknown tier %q", s)
}

// Thresholds maps tiers to the lifetime earnings they require.
type Thresholds struct {
	Sapling int64 `yaml:"sapling" json:"sapling"`
	Grove   int64 `yaml:"grove"   json:"grove"`
	Forest  int64 `yaml:"forest"  json:"forest"`
}

// DefaultThresholds returns the built-in tier thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Sapling: SaplingThreshold, Grove: GroveThreshold, Forest: ForestThreshold}
}

// Validate requires strictly increasing positive thresholds.
func (th Thresholds) Validate() error {
	if th.Sapling <= 0 || th.Grove <= th.Sapling || th.Forest <= th.Grove {
		return fmt.Errorf("tier thresholds must be positive and strictly increasing: %d < %d < %d",
			th.Sapling, th.Grove, th.Forest)
	}
	return nil
}

// For returns the tier reached with earned lifetime tokens.
func (th Thresholds) For(earned int64) Tier {
	switch {
	case earned >= th.Forest:
		return TierForest
	case earned >= th.Grove:
		return TierGrove
	case earned >= th.Sapling:
		return TierSapling
	default:
		return TierSeedling
	}
}

// TierFor applies the default thresholds.
func TierFor(earned int64) Tier {
	return DefaultThresholds().For(earned)
}
