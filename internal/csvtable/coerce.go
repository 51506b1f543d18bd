package csvtable

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind names a per-column coercion rule.
type Kind int

const (
	// String keeps the trimmed cell text as is.
	String Kind = iota
	// PassThrough keeps the cell text; used for columns no rule mentions.
	PassThrough
	// Percent strips a '%' sign and parses the leading float. Empty cells are null.
	Percent
	// Float parses the leading float of the cell, ignoring trailing garbage.
	Float
	// Int parses the leading base-10 integer of the cell.
	Int
	// IntOrZero is Int with missing cells stored as 0. Unparseable cells are null.
	IntOrZero
	// Number requires the whole cell to be numeric. Empty cells are null.
	Number
)

var kindNames = map[Kind]string{
	String:      "string",
	PassThrough: "passthrough",
	Percent:     "percent",
	Float:       "float",
	Int:         "int",
	IntOrZero:   "int_or_zero",
	Number:      "number",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// coercers maps each kind to its cell conversion.
var coercers = map[Kind]func(string) Value{
	String:      Str,
	PassThrough: Str,
	Percent:     coercePercent,
	Float:       coerceFloat,
	Int:         coerceInt,
	IntOrZero:   coerceIntOrZero,
	Number:      coerceNumber,
}

// Coerce converts one trimmed cell according to kind. Unknown kinds keep the text.
func Coerce(kind Kind, cell string) Value {
	if fn, ok := coercers[kind]; ok {
		return fn(cell)
	}
	return Str(cell)
}

func coercePercent(cell string) Value {
	if cell == "" {
		return Null()
	}
	return coerceFloat(strings.Replace(cell, "%", "", 1))
}

func coerceFloat(cell string) Value {
	f, ok := leadingFloat(cell)
	if !ok {
		return Null()
	}
	return Num(f)
}

func coerceInt(cell string) Value {
	n, ok := leadingInt(cell)
	if !ok {
		return Null()
	}
	return Num(float64(n))
}

func coerceIntOrZero(cell string) Value {
	if strings.TrimSpace(cell) == "" {
		return Num(0)
	}
	return coerceInt(cell)
}

func coerceNumber(cell string) Value {
	s := strings.TrimSpace(cell)
	if s == "" {
		return Null()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null()
	}
	return Num(f)
}

// leadingFloat parses the longest decimal float prefix of s after leading
// whitespace: [+-]? digits [. digits] [e[+-]digits].
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	digits := i - intStart
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		digits += j - i - 1
		i = j
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			i = j
		}
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// leadingInt parses the longest base-10 integer prefix of s after leading whitespace.
func leadingInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
