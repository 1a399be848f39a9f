// Package advisor produces free-text reduction advice. Generation is a
// pluggable capability: the CLI uses it, the computation packages never do.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rshade/greenledger/internal/footprint"
	"github.com/rshade/greenledger/internal/greenops"
)

// TextGenerator turns a prompt into text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is the structured input for generation.
type Prompt struct {
	Footprint footprint.Result
	// MaxTips limits the number of suggestions; 0 means 3.
	MaxTips int
}

// GenerationError wraps a generator failure with the generator's name.
type GenerationError struct {
	Generator string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("text generation failed (%s): %v", e.Generator, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

const defaultMaxTips = 3

var tipsByCategory = map[string][]string{
	"transport": {
		"Replace short car trips with cycling, walking or transit.",
		"Combine errands into one trip and carpool where you can.",
		"Swap one short-haul flight for a train journey.",
	},
	"home": {
		"Switch to a renewable electricity tariff.",
		"Lower the thermostat by one degree and seal drafts.",
		"Move laundry and dishwashing to cold, full loads.",
	},
	"food": {
		"Make two dinners a week plant-based.",
		"Buy seasonal produce from local growers.",
		"Plan meals to cut food waste.",
	},
	"shopping": {
		"Repair or buy second-hand before buying new.",
		"Recycle packaging and electronics properly.",
		"Set a monthly no-spend day.",
	},
}

// TemplateGenerator produces deterministic tips from the largest categories
// of a footprint. It needs no network and never fails except on
// cancellation.
type TemplateGenerator struct{}

// Generate implements TextGenerator.
func (TemplateGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Generator: "template", Err: err}
	}

	limit := p.MaxTips
	if limit <= 0 {
		limit = defaultMaxTips
	}

	top := p.Footprint.Largest(limit)
	if len(top) == 0 {
		return "No emissions recorded. Keep it up!", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your footprint is %s.\n", greenops.FormatKg(p.Footprint.Total))
	n := 0
	for round := 0; n < limit; round++ {
		added := false
		for _, s := range top {
			tips := tipsByCategory[s.Category]
			if round >= len(tips) || n >= limit {
				continue
			}
			n++
			added = true
			fmt.Fprintf(&b, "%d. [%s, %s%%] %s\n", n, s.Category, greenops.FormatFloat(s.Percentage, 0), tips[round])
		}
		if !added {
			break
		}
	}
	if n == 0 {
		fmt.Fprintf(&b, "Largest source: %s. Look for ways to reduce it.\n", top[0].Category)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
