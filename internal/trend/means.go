package trend

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/greenledger/internal/footprint"
	"github.com/rshade/greenledger/internal/greenops"
)

type meansFile struct {
	Unit       string             `yaml:"unit"`
	Categories map[string]float64 `yaml:"categories"`
}

// LoadPeerMeans reads per-category peer means from a YAML file such as
//
//	unit: t
//	categories:
//	  transport: 0.4
//	  home: 0.3
//
// and returns them in kg CO2e, sorted by category. The unit defaults to kg.
func LoadPeerMeans(path string) ([]footprint.Share, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading peer means %s: %w", path, err)
	}
	var f meansFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing peer means %s: %w", path, err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("peer means %s: no categories", path)
	}

	means := make([]footprint.Share, 0, len(f.Categories))
	for category, v := range f.Categories {
		kg, err := greenops.NormalizeToKg(v, f.Unit)
		if err != nil {
			return nil, fmt.Errorf("peer means %s: category %s: %w", path, category, err)
		}
		means = append(means, footprint.Share{Category: strings.ToLower(strings.TrimSpace(category)), Emissions: kg})
	}
	sort.Slice(means, func(i, j int) bool { return means[i].Category < means[j].Category })
	return means, nil
}
