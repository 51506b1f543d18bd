package datasets

import (
	"math"
	"strconv"
	"strings"

	"edudash/internal/csvtable"
)

// NoData is shown for missing values.
const NoData = "无数据"

// FormatMetricValue renders v for tooltips and legends: percentages with two decimals
// and a % sign, 师生比 with two decimals, anything else with thousands separators.
func FormatMetricValue(metric string, v csvtable.Value) string {
	if v.IsNull() {
		return NoData
	}
	f, ok := v.Float()
	if !ok {
		s := strings.TrimSpace(v.String())
		if s == "" {
			return NoData
		}
		parsed, err := strconv.ParseFloat(strings.Replace(s, "%", "", 1), 64)
		if err != nil {
			return s
		}
		f = parsed
	}
	return FormatMetricNumber(metric, f)
}

// FormatMetricNumber is FormatMetricValue for a plain number.
func FormatMetricNumber(metric string, f float64) string {
	if math.IsNaN(f) {
		return NoData
	}
	switch {
	case IsPercentMetric(metric):
		return strconv.FormatFloat(f, 'f', 2, 64) + "%"
	case metric == ColRatio:
		return strconv.FormatFloat(f, 'f', 2, 64)
	default:
		return FormatGrouped(f)
	}
}

// FormatAxisNumber abbreviates large axis values with 亿 and 万.
func FormatAxisNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "N/A"
	case f >= 1e8:
		return strconv.FormatFloat(f/1e8, 'f', 1, 64) + "亿"
	case f >= 1e4:
		return strconv.FormatFloat(f/1e4, 'f', 1, 64) + "万"
	default:
		return FormatGrouped(f)
	}
}

// FormatGrouped renders f with comma thousands separators and at most three
// fraction digits, trailing zeros removed.
func FormatGrouped(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(math.Abs(f), 'f', 3, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if f < 0 && (intPart != "0" || frac != "") {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
