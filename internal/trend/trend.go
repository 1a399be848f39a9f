// Package trend compares a footprint against its own history and against
// peer benchmarks.
package trend

import (
	"math"

	"github.com/rshade/greenledger/internal/footprint"
)

// DefaultEpsilon is the tolerance under which two totals are equal.
const DefaultEpsilon = 1e-6

const percentMultiplier = 100.0

// Direction describes movement relative to the previous footprint.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Standing describes the current footprint relative to a peer. Lower
// emissions are better.
type Standing string

const (
	StandingBetter Standing = "better"
	StandingWorse  Standing = "worse"
	StandingEqual  Standing = "equal"
)

// CategoryDelta is the change of one category against the previous footprint.
type CategoryDelta struct {
	Category      string  `json:"category"`
	Previous      float64 `json:"previous"`
	Current       float64 `json:"current"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
}

// PeerComparison reports the signed gap to a peer benchmark.
type PeerComparison struct {
	PeerTotal float64  `json:"peer_total"`
	Delta     float64  `json:"delta"`
	Standing  Standing `json:"standing"`
}

// Report is the read-only outcome of Compare.
type Report struct {
	CurrentTotal   float64         `json:"current_total"`
	HasPrevious    bool            `json:"has_previous"`
	PreviousTotal  float64         `json:"previous_total"`
	AbsoluteChange float64         `json:"absolute_change"`
	PercentChange  float64         `json:"percent_change"`
	Direction      Direction       `json:"direction"`
	Categories     []CategoryDelta `json:"categories,omitempty"`
	Peer           *PeerComparison `json:"peer,omitempty"`
	Series         []float64       `json:"series"`
}

type options struct {
	epsilon float64
}

// Option customizes Compare.
type Option func(*options)

// WithEpsilon sets the equality tolerance. Non-positive values are ignored.
func WithEpsilon(eps float64) Option {
	return func(o *options) {
		if eps > 0 {
			o.epsilon = eps
		}
	}
}

// Compare reports how current moved relative to the last entry of history
// (history is chronological) and, when peer is non-nil, how it stands against
// the peer. Percent change is 0 when the previous total is 0. No input is
// modified.
func Compare(current footprint.Result, history []footprint.Result, peer *footprint.Result, opts ...Option) Report {
	o := options{epsilon: DefaultEpsilon}
	for _, opt := range opts {
		opt(&o)
	}

	report := Report{
		CurrentTotal: current.Total,
		Direction:    DirectionFlat,
		Series:       make([]float64, 0, len(history)+1),
	}
	for _, h := range history {
		report.Series = append(report.Series, h.Total)
	}
	report.Series = append(report.Series, current.Total)

	if len(history) > 0 {
		prev := history[len(history)-1]
		report.HasPrevious = true
		report.PreviousTotal = prev.Total
		report.AbsoluteChange = current.Total - prev.Total
		report.PercentChange = PercentChange(prev.Total, current.Total)
		report.Direction = direction(report.AbsoluteChange, o.epsilon)
		report.Categories = categoryDeltas(prev, current)
	}

	if peer != nil {
		delta := current.Total - peer.Total
		report.Peer = &PeerComparison{
			PeerTotal: peer.Total,
			Delta:     delta,
			Standing:  standing(delta, o.epsilon),
		}
	}

	return report
}

// PercentChange is (current-previous)/previous*100, or 0 when previous is 0.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * percentMultiplier
}

func direction(change, eps float64) Direction {
	switch {
	case math.Abs(change) <= eps:
		return DirectionFlat
	case change > 0:
		return DirectionUp
	default:
		return DirectionDown
	}
}

func standing(delta, eps float64) Standing {
	switch {
	case math.Abs(delta) <= eps:
		return StandingEqual
	case delta < 0:
		return StandingBetter
	default:
		return StandingWorse
	}
}

// categoryDeltas pairs categories by name, in the order of current followed
// by any categories only present in prev.
func categoryDeltas(prev, current footprint.Result) []CategoryDelta {
	seen := make(map[string]bool, len(current.Breakdown))
	out := make([]CategoryDelta, 0, len(current.Breakdown))

	for _, s := range current.Breakdown {
		seen[s.Category] = true
		p, _ := prev.Emissions(s.Category)
		out = append(out, CategoryDelta{
			Category:      s.Category,
			Previous:      p,
			Current:       s.Emissions,
			Change:        s.Emissions - p,
			PercentChange: PercentChange(p, s.Emissions),
		})
	}
	for _, s := range prev.Breakdown {
		if seen[s.Category] {
			continue
		}
		out = append(out, CategoryDelta{
			Category:      s.Category,
			Previous:      s.Emissions,
			Change:        -s.Emissions,
			PercentChange: PercentChange(s.Emissions, 0),
		})
	}
	return out
}
