package datasets

import "edudash/internal/csvtable"

// Metric describes one numeric column of all_data as the map and comparison views
// present it.
type Metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Unit is "%", "元" or empty.
	Unit        string  `json:"unit"`
	PercentLike bool    `json:"percent_like"`
	DefaultMin  float64 `json:"default_min"`
	DefaultMax  float64 `json:"default_max"`
	// OpenEnded metrics treat a zero or unset slider maximum as unbounded.
	OpenEnded bool `json:"open_ended"`
}

// MapMetrics are the choropleth metrics in selector order.
var MapMetrics = []Metric{
	{Key: ColExpenditure, Label: "教育经费合计 (元)", Unit: "元", DefaultMin: 0, DefaultMax: 1e9, OpenEnded: true},
	{Key: ColTierOne, Label: "一本率 (%)", Unit: "%", PercentLike: true, DefaultMin: 0, DefaultMax: 100},
	{Key: ColKeySchool, Label: "重点中学比例 (%)", Unit: "%", PercentLike: true, DefaultMin: 0, DefaultMax: 100},
	{Key: ColRatio, Label: "师生比", DefaultMin: 5, DefaultMax: 30, OpenEnded: true},
	{Key: ColEnrollment, Label: "高等学校入学率 (%)", Unit: "%", PercentLike: true, DefaultMin: 0, DefaultMax: 100},
}

// LookupMetric returns the map metric for key.
func LookupMetric(key string) (Metric, bool) {
	for _, m := range MapMetrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// AvailableMetrics returns the metrics with at least one non-null value in records.
func AvailableMetrics(records []csvtable.Record) []Metric {
	out := make([]Metric, 0, len(MapMetrics))
	for _, m := range MapMetrics {
		if len(csvtable.Values(records, m.Key)) > 0 {
			out = append(out, m)
		}
	}
	return out
}

// IsPercentMetric reports whether key is stored as a percentage.
func IsPercentMetric(key string) bool {
	m, ok := LookupMetric(key)
	return ok && m.PercentLike
}
