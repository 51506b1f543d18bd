// Package csvtable parses the dashboard's comma-separated datasets into typed records.
//
// The format is deliberately simple: one header line, comma separated cells, no quoting.
// A comma inside a field is not supported and will shift the remaining cells.
package csvtable

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
)

const byteOrderMark = "\ufeff"

// Schema is the declarative rule table for one dataset.
type Schema struct {
	// Name identifies the dataset in errors and logs.
	Name string
	// RegionColumn is the header whose non-empty value every kept record must have.
	RegionColumn string
	// Rules maps header names to coercion kinds.
	Rules map[string]Kind
	// Default applies to headers without a rule.
	Default Kind
	// UnderscoreUnruled replaces whitespace in headers without a rule with '_'.
	UnderscoreUnruled bool
	// PadShortRows keeps rows with fewer cells than headers, reading missing cells as empty.
	PadShortRows bool
	// Require lists columns that must be non-null for a record to be kept.
	Require []string
	// Derive, when set, adds computed fields to each kept record.
	Derive func(Record)
}

// Dataset is an ordered, read-only sequence of records sharing one schema.
type Dataset struct {
	Name         string
	RegionColumn string
	// Headers are the cleaned header tokens in file order.
	Headers []string
	// Columns are the record keys in header order.
	Columns []string
	Records []Record
}

type column struct {
	key  string
	kind Kind
}

// Parse turns raw text into a Dataset according to schema.
//
// A missing or blank header line yields a *LoadError. Rows with fewer cells than
// the header are skipped unless the schema pads them. Cells that fail numeric
// coercion become null.
func Parse(text string, schema Schema) (*Dataset, error) {
	text = strings.TrimSpace(strings.TrimPrefix(text, byteOrderMark))
	lines := strings.Split(text, "\n")

	headerLine := strings.TrimSpace(lines[0])
	if headerLine == "" {
		return nil, &LoadError{
			Dataset: schema.Name,
			Op:      "parse",
			Message: fmt.Sprintf("%s is empty or has no header line", displayName(schema.Name)),
		}
	}

	headers := splitCells(headerLine)
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, byteOrderMark))
	}
	columns := schema.columns(headers)

	ds := &Dataset{
		Name:         schema.Name,
		RegionColumn: schema.RegionColumn,
		Headers:      headers,
		Columns:      make([]string, len(columns)),
		Records:      make([]Record, 0, len(lines)-1),
	}
	for i, c := range columns {
		ds.Columns[i] = c.key
	}

	for _, line := range lines[1:] {
		cells := splitCells(line)
		if len(cells) < len(headers) && !schema.PadShortRows {
			continue
		}

		rec := make(Record, len(columns))
		for i, c := range columns {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			rec[c.key] = Coerce(c.kind, cell)
		}

		if !schema.keep(rec) {
			continue
		}
		if schema.Derive != nil {
			schema.Derive(rec)
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// ParseReader reads r to the end and parses it.
func ParseReader(ctx context.Context, r io.Reader, schema Schema) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Dataset: schema.Name, Op: "read", Message: "failed to read data", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(string(data), schema)
}

func (s Schema) columns(headers []string) []column {
	cols := make([]column, len(headers))
	for i, h := range headers {
		if kind, ok := s.Rules[h]; ok {
			cols[i] = column{key: h, kind: kind}
			continue
		}
		if h == s.RegionColumn {
			cols[i] = column{key: h, kind: String}
			continue
		}
		key := h
		if s.UnderscoreUnruled {
			key = underscoreSpaces(h)
		}
		cols[i] = column{key: key, kind: s.Default}
	}
	return cols
}

func (s Schema) keep(rec Record) bool {
	if s.RegionColumn != "" && rec.Text(s.RegionColumn) == "" {
		return false
	}
	for _, key := range s.Require {
		if rec.Get(key).IsNull() {
			return false
		}
	}
	return true
}

// Regions returns the sorted unique values of the region column.
func (d *Dataset) Regions() []string {
	seen := make(map[string]struct{}, len(d.Records))
	regions := make([]string, 0, len(d.Records))
	for _, rec := range d.Records {
		name := rec.Text(d.RegionColumn)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		regions = append(regions, name)
	}
	sort.Strings(regions)
	return regions
}

// Values returns the non-null numbers of column across records.
func Values(records []Record, column string) []float64 {
	out := make([]float64, 0, len(records))
	for _, rec := range records {
		if f, ok := rec.Float(column); ok {
			out = append(out, f)
		}
	}
	return out
}

// Find returns the first record whose region column equals region.
func (d *Dataset) Find(region string) (Record, bool) {
	for _, rec := range d.Records {
		if rec.Text(d.RegionColumn) == region {
			return rec, true
		}
	}
	return nil, false
}

// Len reports the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

func splitCells(line string) []string {
	cells := strings.Split(line, ",")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func underscoreSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
}

func displayName(name string) string {
	if name == "" {
		return "dataset"
	}
	return name
}
