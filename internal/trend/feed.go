package trend

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rshade/greenledger/internal/footprint"
)

type constError string

func (e constError) Error() string { return string(e) }

// ErrNoBenchmark is returned by a feed that has nothing to offer.
const ErrNoBenchmark = constError("no peer benchmark available")

// PeerFeed supplies peer benchmark footprints. Implementations may block on
// I/O, so callers pass a context and must not hold locks across the call.
type PeerFeed interface {
	Benchmark(ctx context.Context) (footprint.Result, error)
}

// FixedFeed returns its results in order, wrapping around at the end.
type FixedFeed struct {
	mu      sync.Mutex
	results []footprint.Result
	next    int
}

// NewFixedFeed returns a feed cycling through results.
func NewFixedFeed(results ...footprint.Result) *FixedFeed {
	return &FixedFeed{results: append([]footprint.Result(nil), results...)}
}

// Benchmark implements PeerFeed.
func (f *FixedFeed) Benchmark(ctx context.Context) (footprint.Result, error) {
	if err := ctx.Err(); err != nil {
		return footprint.Result{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.results) == 0 {
		return footprint.Result{}, ErrNoBenchmark
	}
	r := f.results[f.next%len(f.results)]
	f.next++
	return r, nil
}

// SeededFeed synthesizes peer footprints around per-category means. The
// same seed yields the same sequence.
type SeededFeed struct {
	mu     sync.Mutex
	rng    *rand.Rand
	means  []footprint.Share
	spread float64
	now    func() time.Time
}

// DefaultPeerMeans are monthly kg CO2e averages for a typical household.
func DefaultPeerMeans() []footprint.Share {
	return []footprint.Share{
		{Category: "transport", Emissions: 380},
		{Category: "home", Emissions: 290},
		{Category: "food", Emissions: 160},
		{Category: "shopping", Emissions: 120},
	}
}

// NewSeededFeed returns a feed drawing each category uniformly from
// mean*(1±spread). A spread outside [0,1] is clamped.
func NewSeededFeed(seed uint64, means []footprint.Share, spread float64) *SeededFeed {
	if len(means) == 0 {
		means = DefaultPeerMeans()
	}
	spread = min(max(spread, 0), 1)
	return &SeededFeed{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		means:  append([]footprint.Share(nil), means...),
		spread: spread,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Benchmark implements PeerFeed.
func (f *SeededFeed) Benchmark(ctx context.Context) (footprint.Result, error) {
	if err := ctx.Err(); err != nil {
		return footprint.Result{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	r := footprint.Result{
		ID:        "peer",
		CreatedAt: f.now(),
		Breakdown: make([]footprint.Share, 0, len(f.means)),
	}
	for _, m := range f.means {
		jitter := 1 + f.spread*(2*f.rng.Float64()-1)
		e := max(m.Emissions*jitter, 0)
		r.Breakdown = append(r.Breakdown, footprint.Share{Category: m.Category, Emissions: e})
		r.Total += e
	}
	if r.Total > 0 {
		for i := range r.Breakdown {
			r.Breakdown[i].Percentage = r.Breakdown[i].Emissions / r.Total * percentMultiplier
		}
	}
	return r, nil
}
