// Package rangefilter derives slider bounds from observed column values and builds
// record predicates from paired min/max controls.
package rangefilter

import (
	"encoding/json"
	"math"

	"edudash/internal/csvtable"
)

// Range is an inclusive numeric interval. A NaN bound marks the range inactive.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MarshalJSON writes a non-finite bound as null; an open-ended maximum is +Inf.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	}{finiteOrNil(r.Min), finiteOrNil(r.Max)})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Inactive reports whether either bound is NaN.
func (r Range) Inactive() bool {
	return math.IsNaN(r.Min) || math.IsNaN(r.Max)
}

// Contains reports whether v lies within the range, inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp raises Max to Min when the pair is inverted.
func (r Range) Clamp() Range {
	if r.Min > r.Max {
		r.Max = r.Min
	}
	return r
}

// OpenEnded replaces a zero or NaN maximum with +Inf.
func (r Range) OpenEnded() Range {
	if r.Max == 0 || math.IsNaN(r.Max) {
		r.Max = math.Inf(1)
	}
	return r
}

// DeriveBounds computes slider bounds for column from the non-null values in records.
//
// Percentage-like columns are floored/ceiled to whole numbers and clamped to [0,100].
// Other columns use the raw extremes; a single repeated value is widened by 10% each
// way, and a repeated zero gets max = defaultMax (or 1). With no values the defaults
// are returned. The result always satisfies min <= max.
func DeriveBounds(records []csvtable.Record, column string, percentLike bool, defaultMin, defaultMax float64) (float64, float64) {
	values := finiteValues(records, column)

	var lo, hi float64
	if percentLike {
		lo, hi = defaultMin, defaultMax
		if len(values) > 0 {
			mn, mx := extremes(values)
			lo, hi = math.Floor(mn), math.Ceil(mx)
		}
		lo = clamp(lo, 0, 100)
		hi = clamp(hi, 0, 100)
	} else {
		lo, hi = defaultMin, defaultMax
		if len(values) > 0 {
			lo, hi = extremes(values)
		}
		if len(values) > 0 && lo == hi {
			if lo != 0 {
				lo, hi = lo*0.9, hi*1.1
			} else {
				hi = defaultMax
				if hi == 0 || math.IsNaN(hi) {
					hi = 1
				}
			}
		}
	}

	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Bounds is DeriveBounds returning a Range.
func Bounds(records []csvtable.Record, column string, percentLike bool, defaultMin, defaultMax float64) Range {
	lo, hi := DeriveBounds(records, column, percentLike, defaultMin, defaultMax)
	return Range{Min: lo, Max: hi}
}

func finiteValues(records []csvtable.Record, column string) []float64 {
	values := csvtable.Values(records, column)
	out := values[:0]
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func extremes(values []float64) (float64, float64) {
	mn, mx := values[0], values[0]
	for _, v := range values[1:] {
		mn = math.Min(mn, v)
		mx = math.Max(mx, v)
	}
	return mn, mx
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
