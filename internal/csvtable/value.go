package csvtable

import (
	"encoding/json"
	"math"
	"strconv"
)

type valueKind uint8

const (
	nullValue valueKind = iota
	stringValue
	numberValue
)

// Value is a single parsed cell: a string, a finite number, or null.
type Value struct {
	kind valueKind
	str  string
	num  float64
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Str wraps a string cell.
func Str(s string) Value { return Value{kind: stringValue, str: s} }

// Num wraps a numeric cell. NaN and infinities are stored as null so that
// consumers never see a non-finite number.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: numberValue, num: f}
}

func (v Value) IsNull() bool   { return v.kind == nullValue }
func (v Value) IsNumber() bool { return v.kind == numberValue }
func (v Value) IsString() bool { return v.kind == stringValue }

// Float returns the numeric payload and whether the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != numberValue {
		return 0, false
	}
	return v.num, true
}

// String renders the value as cell text. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case stringValue:
		return v.str
	case numberValue:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Any returns the value as a plain Go value (string, float64 or nil).
func (v Value) Any() any {
	switch v.kind {
	case stringValue:
		return v.str
	case numberValue:
		return v.num
	default:
		return nil
	}
}

// MarshalJSON encodes strings and numbers natively and null as JSON null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// Record is one parsed row keyed by column name.
type Record map[string]Value

// Get returns the value for key, or null when the column is absent.
func (r Record) Get(key string) Value {
	if v, ok := r[key]; ok {
		return v
	}
	return Null()
}

// Float is shorthand for r.Get(key).Float().
func (r Record) Float(key string) (float64, bool) {
	return r.Get(key).Float()
}

// Text is shorthand for r.Get(key).String().
func (r Record) Text(key string) string {
	return r.Get(key).String()
}
