package factors

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// Latest selects the highest registered version.
const Latest = "latest"

// Registry holds every known table version. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]Table
	order  []*semver.Version
}

// NewRegistry returns a registry containing the given tables. With no tables
// it contains the built-in default.
func NewRegistry(tables ...Table) (*Registry, error) {
	r := &Registry{tables: make(map[string]Table)}
	if len(tables) == 0 {
		tables = []Table{Default()}
	}
	for _, t := range tables {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and adds a table.
func (r *Registry) Register(t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	v, err := t.SemVer()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := v.String()
	if _, exists := r.tables[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVersion, key)
	}
	t.Version = key
	r.tables[key] = t
	r.order = append(r.order, v)
	sort.Sort(semver.Collection(r.order))
	return nil
}

// Resolve returns the table for an exact version, a semver constraint
// (e.g. "^1.0"), or the highest version for "" and "latest".
func (r *Registry) Resolve(spec string) (Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return Table{}, fmt.Errorf("%w: registry is empty", ErrUnknownVersion)
	}

	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, Latest) {
		return r.tables[r.order[len(r.order)-1].String()], nil
	}

	if v, err := semver.NewVersion(spec); err == nil {
		if t, ok := r.tables[v.String()]; ok {
			return t, nil
		}
		return Table{}, fmt.Errorf("%w: %s", ErrUnknownVersion, spec)
	}

	c, err := semver.NewConstraint(spec)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %q is neither a version nor a constraint", ErrUnknownVersion, spec)
	}
	for i := len(r.order) - 1; i >= 0; i-- {
		if c.Check(r.order[i]) {
			return r.tables[r.order[i].String()], nil
		}
	}
	return Table{}, fmt.Errorf("%w: nothing satisfies %s", ErrUnknownVersion, spec)
}

// Versions returns the registered versions in ascending order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	for i, v := range r.order {
		out[i] = v.String()
	}
	return out
}
