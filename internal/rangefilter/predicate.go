package rangefilter

import (
	"sort"

	"edudash/internal/csvtable"
)

// Filters maps a column to its active range.
type Filters map[string]Range

// Predicate decides whether a record passes every active range.
type Predicate func(csvtable.Record) bool

// BuildPredicate combines filters into one predicate.
//
// A record with a null or missing value for a column passes that column. Ranges with
// a NaN bound are skipped. Bounds are inclusive.
func BuildPredicate(filters Filters) Predicate {
	columns := make([]string, 0, len(filters))
	for column, r := range filters {
		if r.Inactive() {
			continue
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	ranges := make([]Range, len(columns))
	for i, column := range columns {
		ranges[i] = filters[column]
	}

	return func(rec csvtable.Record) bool {
		for i, column := range columns {
			v, ok := rec.Float(column)
			if !ok {
				continue
			}
			if !ranges[i].Contains(v) {
				return false
			}
		}
		return true
	}
}

// Apply returns the records accepted by pred, preserving order.
func Apply(records []csvtable.Record, pred Predicate) []csvtable.Record {
	out := make([]csvtable.Record, 0, len(records))
	for _, rec := range records {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}
