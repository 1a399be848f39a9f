package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Input is a raw calculation request: category -> field -> value. Values may
// be any Go number, a json.Number, or a numeric string.
type Input map[string]map[string]any

// Normalized is a validated Input. It is immutable; use Value to read it.
type Normalized struct {
	categories []string
	values     map[string]map[string]float64
}

// Value returns the quantity of field in category, or 0 when it was absent.
func (n Normalized) Value(category, field string) float64 {
	return n.values[category][field]
}

// Has reports whether the category was present in the input.
func (n Normalized) Has(category string) bool {
	_, ok := n.values[category]
	return ok
}

// Categories returns the categories known to the schema the input was
// validated against, in breakdown order.
func (n Normalized) Categories() []string {
	out := make([]string, len(n.categories))
	copy(out, n.categories)
	return out
}

// Fields returns the fields supplied for category, sorted.
func (n Normalized) Fields(category string) []string {
	fields := make([]string, 0, len(n.values[category]))
	for f := range n.values[category] {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Canonical returns a stable textual form suitable for hashing.
func (n Normalized) Canonical() string {
	var b strings.Builder
	for _, c := range n.categories {
		for _, f := range n.Fields(c) {
			fmt.Fprintf(&b, "%s.%s=%s;", c, f, strconv.FormatFloat(n.values[c][f], 'g', -1, 64))
		}
	}
	return b.String()
}

// Normalize validates raw against the default schema.
func Normalize(raw Input) (Normalized, error) {
	return DefaultSchema().Normalize(raw)
}

// Normalize validates raw against s. It never clamps: any value outside its
// declared domain is a *ValidationError. Unknown categories and fields are
// rejected.
func (s Schema) Normalize(raw Input) (Normalized, error) {
	out := Normalized{
		categories: s.Categories(),
		values:     make(map[string]map[string]float64, len(raw)),
	}

	// Sorted iteration keeps the reported error deterministic.
	categories := make([]string, 0, len(raw))
	for c := range raw {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		spec, ok := s[category]
		if !ok {
			return Normalized{}, &ValidationError{Category: category, Reason: "unknown category"}
		}

		fields := make([]string, 0, len(raw[category]))
		for f := range raw[category] {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		values := make(map[string]float64, len(fields))
		for _, field := range fields {
			kind, known := spec[field]
			if !known {
				return Normalized{}, &ValidationError{Category: category, Field: field, Reason: "unknown field"}
			}
			v, err := coerce(raw[category][field])
			if err != nil {
				return Normalized{}, &ValidationError{Category: category, Field: field, Reason: err.Error()}
			}
			if reason := checkDomain(kind, v); reason != "" {
				return Normalized{}, &ValidationError{Category: category, Field: field, Reason: reason}
			}
			values[field] = v
		}
		out.values[category] = values
	}

	return out, nil
}

func checkDomain(kind Kind, v float64) string {
	switch kind {
	case Percentage:
		if v < 0 || v > 100 {
			return fmt.Sprintf("percentage %g outside [0,100]", v)
		}
	case Quantity:
		if v < 0 {
			return fmt.Sprintf("negative quantity %g", v)
		}
	}
	return ""
}

// coerce turns a raw value into a finite float64.
func coerce(raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int8:
		v = float64(x)
	case int16:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint8:
		v = float64(x)
	case uint16:
		v = float64(x)
	case uint32:
		v = float64(x)
	case uint64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x.String())
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		v = f
	case nil:
		return 0, errors.New("missing value")
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite number")
	}
	return v, nil
}
