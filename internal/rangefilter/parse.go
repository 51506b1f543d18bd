package rangefilter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseSpec reads a "column:min:max" filter. It splits on the last two colons
// so column names may contain one. An empty min reads as 0 and an empty max as
// +Inf. The column is trimmed but may be empty; callers validate it.
func ParseSpec(s string) (string, Range, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return "", Range{}, fmt.Errorf("filter %q: want column:min:max", s)
	}
	j := strings.LastIndex(s[:i], ":")
	if j < 0 {
		return "", Range{}, fmt.Errorf("filter %q: want column:min:max", s)
	}

	var (
		r   Range
		err error
	)
	if r.Min, err = parseBound(s[j+1:i], 0); err != nil {
		return "", Range{}, fmt.Errorf("filter %q: min: %w", s, err)
	}
	if r.Max, err = parseBound(s[i+1:], math.Inf(1)); err != nil {
		return "", Range{}, fmt.Errorf("filter %q: max: %w", s, err)
	}
	return strings.TrimSpace(s[:j]), r, nil
}

func parseBound(s string, empty float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return empty, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("not a number")
	}
	return f, nil
}
