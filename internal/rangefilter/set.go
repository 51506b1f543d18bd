package rangefilter

import (
	"errors"
	"fmt"
	"math"

	"edudash/internal/csvtable"
)

// ErrUnknownColumn is returned when a column has no filter control.
var ErrUnknownColumn = errors.New("no filter control for column")

// Control describes one paired min/max control bound to a numeric column.
type Control struct {
	Column      string  `json:"column"`
	Label       string  `json:"label,omitempty"`
	PercentLike bool    `json:"percent_like"`
	DefaultMin  float64 `json:"default_min"`
	DefaultMax  float64 `json:"default_max"`
	// OpenEndedMax treats a zero or NaN max as unbounded when filtering.
	OpenEndedMax bool `json:"open_ended_max,omitempty"`
}

// ControlState is a control together with its derived limits and current value.
type ControlState struct {
	Control
	Limits Range `json:"limits"`
	Value  Range `json:"value"`
}

// Set is the filter state owned by one view: one ControlState per column.
// It is not safe for concurrent use.
type Set struct {
	order    []string
	controls map[string]*ControlState
}

// NewSet creates a set with the given controls, seeded to their defaults.
func NewSet(controls ...Control) *Set {
	s := &Set{controls: make(map[string]*ControlState, len(controls))}
	for _, c := range controls {
		d := Range{Min: c.DefaultMin, Max: c.DefaultMax}
		s.order = append(s.order, c.Column)
		s.controls[c.Column] = &ControlState{Control: c, Limits: d, Value: d.Clamp()}
	}
	return s
}

// Seed derives limits from records and resets every control to its full range.
func (s *Set) Seed(records []csvtable.Record) {
	for _, column := range s.order {
		st := s.controls[column]
		b := Bounds(records, column, st.PercentLike, st.DefaultMin, st.DefaultMax)
		st.Limits = b
		st.Value = b
	}
}

// SetMin moves the lower bound of column. An inverted pair raises max to min.
func (s *Set) SetMin(column string, v float64) error {
	st, err := s.state(column)
	if err != nil {
		return err
	}
	st.Value.Min = v
	st.Value = st.Value.Clamp()
	return nil
}

// SetMax moves the upper bound of column. An inverted pair raises max to min.
func (s *Set) SetMax(column string, v float64) error {
	st, err := s.state(column)
	if err != nil {
		return err
	}
	st.Value.Max = v
	st.Value = st.Value.Clamp()
	return nil
}

// SetRange sets both bounds of column.
func (s *Set) SetRange(column string, r Range) error {
	st, err := s.state(column)
	if err != nil {
		return err
	}
	st.Value = r.Clamp()
	return nil
}

// Value returns the current range of column.
func (s *Set) Value(column string) (Range, bool) {
	st, ok := s.controls[column]
	if !ok {
		return Range{Min: math.NaN(), Max: math.NaN()}, false
	}
	return st.Value, true
}

// Has reports whether column has a control.
func (s *Set) Has(column string) bool {
	_, ok := s.controls[column]
	return ok
}

// States returns a copy of every control state in declaration order.
func (s *Set) States() []ControlState {
	out := make([]ControlState, 0, len(s.order))
	for _, column := range s.order {
		out = append(out, *s.controls[column])
	}
	return out
}

// Filters returns the active ranges, with open-ended maxima applied.
func (s *Set) Filters() Filters {
	f := make(Filters, len(s.order))
	for _, column := range s.order {
		st := s.controls[column]
		r := st.Value
		if st.OpenEndedMax {
			r = r.OpenEnded()
		}
		f[column] = r
	}
	return f
}

// Predicate builds the predicate for the current values.
func (s *Set) Predicate() Predicate {
	return BuildPredicate(s.Filters())
}

func (s *Set) state(column string) (*ControlState, error) {
	st, ok := s.controls[column]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}
	return st, nil
}
