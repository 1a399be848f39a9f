// Package engine orchestrates footprint calculation, trend reporting, the
// reward ledger and goal tracking over a per-user store.
//
// The engine owns no state of its own beyond its collaborators. Every
// mutation goes through the store's per-key update functions, and calls to
// external collaborators such as the peer feed happen outside them.
package engine

import (
	"runtime"
	"time"

	"github.com/rshade/greenledger/internal/activity"
	"github.com/rshade/greenledger/internal/engine/cache"
	"github.com/rshade/greenledger/internal/factors"
	"github.com/rshade/greenledger/internal/goals"
	"github.com/rshade/greenledger/internal/rewards"
	"github.com/rshade/greenledger/internal/store"
	"github.com/rshade/greenledger/internal/trend"
)

type constError string

func (e constError) Error() string { return string(e) }

const (
	// ErrNoBaseline indicates a goal was requested before any footprint was recorded.
	ErrNoBaseline = constError("no footprint recorded to use as baseline")

	// ErrNoFootprint indicates a trend was requested for a user without history.
	ErrNoFootprint = constError("no footprint recorded")
)

// Milestones are the tokens earned when a goal of each difficulty completes.
type Milestones struct {
	Easy   int64 `yaml:"easy"   json:"easy"`
	Medium int64 `yaml:"medium" json:"medium"`
	Hard   int64 `yaml:"hard"   json:"hard"`
}

// DefaultMilestones returns the built-in milestone rewards.
func DefaultMilestones() Milestones {
	return Milestones{Easy: 50, Medium: 100, Hard: 200}
}

// For returns the reward for difficulty d.
func (m Milestones) For(d goals.Difficulty) int64 {
	switch d {
	case goals.Easy:
		return m.Easy
	case goals.Medium:
		return m.Medium
	case goals.Hard:
		return m.Hard
	default:
		return 0
	}
}

// Engine ties the computation packages to a store.
type Engine struct {
	store      *store.Store
	factors    *factors.Registry
	schema     activity.Schema
	results    *cache.Results
	feed       trend.PeerFeed
	trendOpts  []trend.Option
	ledger     *rewards.Ledger
	catalog    *rewards.Catalog
	tracker    *goals.Tracker
	milestones Milestones
	batchLimit int
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithFactors sets the factor table registry.
func WithFactors(r *factors.Registry) Option {
	return func(e *Engine) { e.factors = r }
}

// WithSchema sets the activity schema used for normalization.
func WithSchema(s activity.Schema) Option {
	return func(e *Engine) { e.schema = s }
}

// WithResultCache enables result caching.
func WithResultCache(r *cache.Results) Option {
	return func(e *Engine) { e.results = r }
}

// WithPeerFeed sets the peer benchmark source used by Trend.
func WithPeerFeed(f trend.PeerFeed) Option {
	return func(e *Engine) { e.feed = f }
}

// WithTrendOptions passes options through to trend.Compare.
func WithTrendOptions(opts ...trend.Option) Option {
	return func(e *Engine) { e.trendOpts = append(e.trendOpts, opts...) }
}

// WithLedger sets the reward ledger.
func WithLedger(l *rewards.Ledger) Option {
	return func(e *Engine) { e.ledger = l }
}

// WithCatalog sets the reward catalog.
func WithCatalog(c *rewards.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithTracker sets the goal tracker.
func WithTracker(t *goals.Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// WithMilestones sets goal completion rewards.
func WithMilestones(m Milestones) Option {
	return func(e *Engine) { e.milestones = m }
}

// WithBatchLimit bounds concurrent calculations in CalculateBatch.
func WithBatchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchLimit = n
		}
	}
}

// WithClock sets the time source for restamped cache hits.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine over st. Unset collaborators get their defaults.
func New(st *store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:      st,
		schema:     activity.DefaultSchema(),
		milestones: DefaultMilestones(),
		batchLimit: runtime.NumCPU(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		e.store = store.New()
	}
	if e.factors == nil {
		reg, err := factors.NewRegistry()
		if err != nil {
			return nil, err
		}
		e.factors = reg
	}
	if e.ledger == nil {
		e.ledger = rewards.NewLedger()
	}
	if e.catalog == nil {
		e.catalog = rewards.DefaultCatalog()
	}
	if e.tracker == nil {
		e.tracker = &goals.Tracker{}
	}
	return e, nil
}

// Store returns the underlying store.
func (e *Engine) Store() *store.Store { return e.store }

// Factors returns the factor registry.
func (e *Engine) Factors() *factors.Registry { return e.factors }

// Catalog returns the reward catalog.
func (e *Engine) Catalog() *rewards.Catalog { return e.catalog }
