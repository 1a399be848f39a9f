// Package goals tracks user reduction targets against measured footprints.
package goals

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/greenledger/internal/footprint"
)

// State is a goal lifecycle state. Completed and Expired are terminal.
type State string

const (
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateExpired   State = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateExpired
}

// Timeframe is the window a goal must be met within.
type Timeframe string

const (
	Week    Timeframe = "week"
	Month   Timeframe = "month"
	Quarter Timeframe = "quarter"
	Year    Timeframe = "year"
)

// Deadline returns from advanced by the timeframe, using calendar
// arithmetic for months, quarters and years.
func (tf Timeframe) Deadline(from time.Time) (time.Time, error) {
	switch tf {
	case Week:
		return from.AddDate(0, 0, 7), nil
	case Month:
		return from.AddDate(0, 1, 0), nil
	case Quarter:
		return from.AddDate(0, 3, 0), nil
	case Year:
		return from.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown timeframe %q", string(tf))
	}
}

// Difficulty scales the milestone reward for completing a goal.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func (d Difficulty) valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// Spec is a request to create a goal.
type Spec struct {
	UserID             string     `json:"user_id"              yaml:"user_id"`
	Title              string     `json:"title"                yaml:"title"`
	Category           string     `json:"category"             yaml:"category"`
	TargetReductionPct float64    `json:"target_reduction_pct" yaml:"target_reduction_pct"`
	Timeframe          Timeframe  `json:"timeframe"            yaml:"timeframe"`
	Difficulty         Difficulty `json:"difficulty"           yaml:"difficulty"`
}

// Goal is a reduction target with its captured baseline. Goals are values:
// UpdateProgress and Expire return new goals.
type Goal struct {
	ID                 string            `json:"id"`
	UserID             string            `json:"user_id"`
	Title              string            `json:"title,omitempty"`
	Category           string            `json:"category"`
	TargetReductionPct float64           `json:"target_reduction_pct"`
	Timeframe          Timeframe         `json:"timeframe"`
	Difficulty         Difficulty        `json:"difficulty"`
	CreatedAt          time.Time         `json:"created_at"`
	Deadline           time.Time         `json:"deadline"`
	Baseline           footprint.Result  `json:"baseline"`
	Latest             *footprint.Result `json:"latest,omitempty"`
	Progress           float64           `json:"progress"`
	State              State             `json:"state"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
}

// Default target bounds, in percent.
const (
	DefaultMinTarget = 5.0
	DefaultMaxTarget = 40.0
)

// Tracker creates goals and advances them. The zero value is usable with
// the default bounds and the wall clock.
type Tracker struct {
	MinTarget float64
	MaxTarget float64
	Now       func() time.Time
}

// NewTracker returns a tracker with the given target bounds.
func NewTracker(minTarget, maxTarget float64) *Tracker {
	return &Tracker{MinTarget: minTarget, MaxTarget: maxTarget}
}

func (t *Tracker) bounds() (float64, float64) {
	lo, hi := t.MinTarget, t.MaxTarget
	if lo == 0 && hi == 0 {
		return DefaultMinTarget, DefaultMaxTarget
	}
	return lo, hi
}

func (t *Tracker) now() time.Time {
	if t.Now == nil {
		return time.Now().UTC()
	}
	return t.Now()
}

// Create validates spec and returns an active goal with zero progress and
// baseline captured.
func (t *Tracker) Create(spec Spec, baseline footprint.Result) (Goal, error) {
	if err := t.validate(spec, baseline); err != nil {
		return Goal{}, err
	}

	category := strings.ToLower(strings.TrimSpace(spec.Category))
	if category == "" {
		category = footprint.CategoryAll
	}

	created := t.now()
	deadline, err := spec.Timeframe.Deadline(created)
	if err != nil {
		return Goal{}, &ValidationError{Field: "timeframe", Reason: err.Error()}
	}

	return Goal{
		ID:                 ulid.Make().String(),
		UserID:             spec.UserID,
		Title:              spec.Title,
		Category:           category,
		TargetReductionPct: spec.TargetReductionPct,
		Timeframe:          spec.Timeframe,
		Difficulty:         spec.Difficulty,
		CreatedAt:          created,
		Deadline:           deadline,
		Baseline:           baseline,
		Progress:           0,
		State:              StateActive,
	}, nil
}

func (t *Tracker) validate(spec Spec, baseline footprint.Result) error {
	lo, hi := t.bounds()
	pct := spec.TargetReductionPct
	if math.IsNaN(pct) || pct < lo || pct > hi {
		return &ValidationError{
			Field:  "target_reduction_pct",
			Reason: fmt.Sprintf("%v is outside [%v, %v]", pct, lo, hi),
		}
	}
	if strings.TrimSpace(spec.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	if _, err := spec.Timeframe.Deadline(time.Time{}); err != nil {
		return &ValidationError{Field: "timeframe", Reason: err.Error()}
	}
	if !spec.Difficulty.valid() {
		return &ValidationError{Field: "difficulty", Reason: fmt.Sprintf("unknown difficulty %q", string(spec.Difficulty))}
	}

	category := strings.ToLower(strings.TrimSpace(spec.Category))
	if category != "" && category != footprint.CategoryAll {
		if _, ok := baseline.Emissions(category); !ok {
			return &ValidationError{Field: "category", Reason: fmt.Sprintf("baseline has no category %q", category)}
		}
	}
	return nil
}

// Progress returns the percentage of the targeted reduction achieved by
// moving from baseline to latest, clamped to [0,100]. A zero baseline is
// fully achieved.
func Progress(baseline, latest, targetPct float64) float64 {
	if baseline <= 0 {
		return 100
	}
	if targetPct <= 0 {
		return 0
	}
	p := (baseline - latest) / (baseline * targetPct / 100) * 100
	return min(max(p, 0), 100)
}

// UpdateProgress measures latest against the goal. An active goal past its
// deadline expires with its progress unchanged; otherwise progress is
// recomputed and reaching 100 completes the goal. A footprint that does not
// cover the goal's category says nothing about it and leaves the goal as it
// was. Terminal goals are returned unchanged.
func (t *Tracker) UpdateProgress(g Goal, latest footprint.Result) Goal {
	if g.State.Terminal() {
		return g
	}
	now := t.now()
	if now.After(g.Deadline) {
		return expire(g)
	}
	if g.Category != "" && g.Category != footprint.CategoryAll {
		if _, ok := latest.Emissions(g.Category); !ok {
			return g
		}
	}

	next := g
	l := latest
	next.Latest = &l
	next.Progress = Progress(g.Baseline.Measure(g.Category), latest.Measure(g.Category), g.TargetReductionPct)
	if next.Progress >= 100 {
		next.State = StateCompleted
		next.CompletedAt = &now
	}
	return next
}

// Expire moves an active goal whose deadline has passed to Expired.
func (t *Tracker) Expire(g Goal) Goal {
	if g.State.Terminal() || !t.now().After(g.Deadline) {
		return g
	}
	return expire(g)
}

func expire(g Goal) Goal {
	next := g
	next.State = StateExpired
	return next
}

// Remaining returns the time left before the deadline, or 0.
func (t *Tracker) Remaining(g Goal) time.Duration {
	return max(g.Deadline.Sub(t.now()), 0)
}
