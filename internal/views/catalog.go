package views

import "edudash/internal/datasets"

// Info describes a view for listings outside a page session.
type Info struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Datasets []string `json:"datasets"`
	// Scatter marks views that expose a trend line and PNG export.
	Scatter bool `json:"scatter"`
}

const (
	titleMap        = "全局地图"
	titleComparison = "区域指标对比分析"
	titleAttainment = "人口受教育结构"
	titleTeacher    = "教师结构"
	titleUniversity = "高校统计"
)

// Catalog lists every view in navigation order, the pinned map first.
func Catalog() []Info {
	out := []Info{{Name: NameMap, Title: titleMap, Datasets: []string{datasets.AllData}}}
	for _, s := range ScatterSpecs {
		out = append(out, Info{Name: s.View, Title: s.Title, Datasets: []string{s.Dataset}, Scatter: true})
	}
	return append(out,
		Info{Name: NameComparison, Title: titleComparison, Datasets: []string{datasets.AllData}},
		Info{Name: NameAttainment, Title: titleAttainment, Datasets: []string{datasets.Educated}},
		Info{Name: NameTeacher, Title: titleTeacher, Datasets: []string{datasets.Teacher}},
		Info{Name: NameUniversity, Title: titleUniversity, Datasets: []string{datasets.University}},
	)
}

// LookupInfo returns the catalog entry for name.
func LookupInfo(name string) (Info, bool) {
	for _, info := range Catalog() {
		if info.Name == name {
			return info, true
		}
	}
	return Info{}, false
}
