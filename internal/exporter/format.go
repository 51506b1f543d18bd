package exporter

import (
	"strconv"
	"unicode/utf8"

	"edudash/internal/csvtable"
)

const (
	minColumnWidth = 8
	maxColumnWidth = 40
)

// formatValue renders a cell for text formats. Null becomes the empty string.
func formatValue(v csvtable.Value) string {
	if f, ok := v.Float(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return v.String()
}

// displayWidth approximates the rendered width of s in spreadsheet character units.
// Wide runes such as CJK ideographs count twice.
func displayWidth(s string) int {
	width := 0
	for _, r := range s {
		if utf8.RuneLen(r) > 2 {
			width += 2
		} else {
			width++
		}
	}
	return width
}

// columnWidth clamps a measured width to a readable range.
func columnWidth(width int) float64 {
	w := width + 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}
