package rewards

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Item is a redeemable catalog reward.
type Item struct {
	ID          string `yaml:"id"          json:"id"`
	Name        string `yaml:"name"        json:"name"`
	Description string `yaml:"description" json:"description"`
	Cost        int64  `yaml:"cost"        json:"cost"`
	MinTier     Tier   `yaml:"min_tier"    json:"min_tier"`
}

// Catalog is an ordered set of items with unique ids.
type Catalog struct {
	items []Item
	byID  map[string]int
}

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// NewCatalog validates items and builds a catalog sorted by cost then id.
func NewCatalog(items ...Item) (*Catalog, error) {
	c := &Catalog{items: append([]Item(nil), items...), byID: make(map[string]int, len(items))}
	sort.SliceStable(c.items, func(i, j int) bool {
		if c.items[i].Cost != c.items[j].Cost {
			return c.items[i].Cost < c.items[j].Cost
		}
		return c.items[i].ID < c.items[j].ID
	})

	var errs []error
	for i, it := range c.items {
		switch {
		case it.ID == "":
			errs = append(errs, fmt.Errorf("item %d: missing id", i))
		case it.Cost < 0:
			errs = append(errs, fmt.Errorf("item %s: %w: cost %d", it.ID, ErrInvalidAmount, it.Cost))
		case it.MinTier < TierSeedling || it.MinTier > TierForest:
			errs = append(errs, fmt.Errorf("item %s: invalid tier %d", it.ID, int(it.MinTier)))
		}
		if _, dup := c.byID[it.ID]; dup && it.ID != "" {
			errs = append(errs, fmt.Errorf("item %s: duplicate id", it.ID))
		}
		c.byID[it.ID] = i
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// DefaultCatalog returns the built-in sample rewards.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Item{ID: "tree-plant", Name: "Plant a tree", Description: "Fund one native tree seedling", Cost: 100},
		Item{ID: "reusable-bottle", Name: "Reusable bottle", Description: "Stainless steel water bottle", Cost: 250},
		Item{ID: "transit-pass", Name: "Transit day pass", Description: "One day of public transit", Cost: 400, MinTier: TierSapling},
		Item{ID: "offset-100", Name: "Offset 100 kg", Description: "Retire 100 kg CO2e of verified offsets", Cost: 500},
		Item{ID: "solar-audit", Name: "Home solar audit", Description: "Rooftop solar feasibility assessment", Cost: 1500, MinTier: TierGrove},
		Item{ID: "ev-charge", Name: "EV charging credit", Description: "Credit at partner charging stations", Cost: 3000, MinTier: TierForest},
	)
	if err != nil {
		panic(fmt.Sprintf("rewards: invalid default catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog with a top-level items list.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	c, err := NewCatalog(f.Items...)
	if err != nil {
		return nil, fmt.Errorf("validating catalog %s: %w", path, err)
	}
	return c, nil
}

// Items returns a copy of the catalog items.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Get returns the item with id.
func (c *Catalog) Get(id string) (Item, error) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return c.items[i], nil
}

// Eligible returns the items an account at tier may redeem.
func (c *Catalog) Eligible(tier Tier) []Item {
	var out []Item
	for _, it := range c.items {
		if it.MinTier <= tier {
			out = append(out, it)
		}
	}
	return out
}
