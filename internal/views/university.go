package views

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"edudash/internal/chart"
	"edudash/internal/coordinator"
	"edudash/internal/csvtable"
	"edudash/internal/datasets"
)

// University grouping dimensions, shared by the bar chart and the pie.
const (
	GroupType          = "type"
	GroupLevel         = "level"
	GroupPublicPrivate = "public_private"
	GroupKeyProject    = "key_project"
)

// university.csv columns.
const (
	colUniType    = "类型"
	colUniLevel   = "本或专科"
	colUniPubPriv = "公或民办"
	colUni985     = "985"
	colUni211     = "211"
	colUniDual    = "双一流"
	colUniAddress = "地址"
)

// Key project buckets.
const (
	Project985    = "985"
	Project211    = "211"
	ProjectDual   = "双一流"
	ProjectNonKey = "非重点"
)

var keyProjects = []string{Project985, Project211, ProjectDual}

// ProvinceStats aggregates the institutions of one province.
type ProvinceStats struct {
	Total         int            `json:"total"`
	Types         map[string]int `json:"types"`
	Levels        map[string]int `json:"levels"`
	PublicPrivate map[string]int `json:"public_private"`
	KeyProjects   map[string]int `json:"key_projects"`
}

func (p *ProvinceStats) group(by string) map[string]int {
	switch by {
	case GroupLevel:
		return p.Levels
	case GroupPublicPrivate:
		return p.PublicPrivate
	case GroupKeyProject:
		return p.KeyProjects
	default:
		return p.Types
	}
}

// AggregateUniversities groups records by province. Blank categories fall back to
// 未知类型, 未知层次 and 未知办学性质; an institution in none of 985/211/双一流
// counts as 非重点.
func AggregateUniversities(records []csvtable.Record) map[string]*ProvinceStats {
	out := make(map[string]*ProvinceStats)
	for _, rec := range records {
		province := rec.Text(datasets.ColProvince)
		if province == "" {
			continue
		}
		st, ok := out[province]
		if !ok {
			st = &ProvinceStats{
				Types:         map[string]int{},
				Levels:        map[string]int{},
				PublicPrivate: map[string]int{},
				KeyProjects:   map[string]int{Project985: 0, Project211: 0, ProjectDual: 0, ProjectNonKey: 0},
			}
			out[province] = st
		}
		st.Total++
		st.Types[orDefault(rec.Text(colUniType), "未知类型")]++
		st.Levels[orDefault(rec.Text(colUniLevel), "未知层次")]++
		st.PublicPrivate[orDefault(rec.Text(colUniPubPriv), "未知办学性质")]++

		key := false
		if rec.Text(colUni985) == "1" {
			st.KeyProjects[Project985]++
			key = true
		}
		if rec.Text(colUni211) == "1" {
			st.KeyProjects[Project211]++
			key = true
		}
		if rec.Text(colUniDual) == ProjectDual {
			st.KeyProjects[ProjectDual]++
			key = true
		}
		if !key {
			st.KeyProjects[ProjectNonKey]++
		}
	}
	return out
}

// UniversityInfo is the side box for the selected province.
type UniversityInfo struct {
	Region string `json:"region"`
	Total  string `json:"total"`
	C985   string `json:"count_985"`
	C211   string `json:"count_211"`
	Dual   string `json:"count_dual"`
}

// UniversityTable lists the institutions of one province. Message replaces the
// table when there is nothing to list.
type UniversityTable struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Message string     `json:"message,omitempty"`
}

// University shows institution counts by province with a side panel, a pie and a
// table for one province.
type University struct {
	base
	bars      chart.Chart
	pie       chart.Chart
	info      chart.Panel
	table     chart.Panel
	selector  chart.Panel
	data      *csvtable.Dataset
	stats     map[string]*ProvinceStats
	regions   []string
	groupBy   string
	pieBy     string
	side      string
	seriesLen int
}

// NewUniversity creates the university statistics view.
func NewUniversity(deps Deps) *University {
	v := &University{
		base:    newBase(NameUniversity, titleUniversity, "高校", deps),
		groupBy: GroupType,
		pieBy:   GroupType,
	}
	v.bars = v.chart("bars")
	v.pie = v.chart("pie")
	v.info = v.panel("info")
	v.table = v.panel("table")
	v.selector = v.panel("side-region")
	return v
}

func (v *University) Init(ctx context.Context) error {
	ds, err := v.load(ctx, v.bars, datasets.University, "高校数据加载中...")
	if err != nil {
		_ = v.table.Update(UniversityTable{Message: "高校列表数据加载错误: " + errorText(err)})
		return err
	}
	v.data = ds
	v.stats = AggregateUniversities(ds.Records)
	v.regions = make([]string, 0, len(v.stats))
	for province := range v.stats {
		v.regions = append(v.regions, province)
	}
	sort.Strings(v.regions)

	if global := v.region(); global != coordinator.AllRegions && v.stats[global] != nil {
		v.side = global
	}
	v.ready = true
	v.renderBars()
	v.renderSide()

	if v.deps.Bus != nil {
		v.deps.Bus.SubscribeRegionChanged(func(ev coordinator.RegionChanged) {
			if v.active() {
				v.onRegion(ev.Region)
			}
		})
	}
	v.logger.Info("university view initialized",
		slog.Int("institutions", ds.Len()),
		slog.Int("provinces", len(v.regions)))
	return nil
}

func (v *University) onRegion(region string) {
	v.side = ""
	if region != coordinator.AllRegions && v.stats[region] != nil {
		v.side = region
	}
	v.renderSide()
	highlightRow(v.bars, v.regions, region, v.seriesLen, true)
}

func (v *University) Resize() error {
	for _, c := range []chart.Chart{v.bars, v.pie} {
		if !chart.Guard(c) {
			return chart.ErrDisposed
		}
		if err := c.Resize(); err != nil {
			return err
		}
	}
	return nil
}

// Control handles "group" and "pie" (type|level|public_private|key_project) and
// "region" (side panel province, empty for none).
func (v *University) Control(_ context.Context, name, value string) error {
	if err := v.requireReady(); err != nil {
		return err
	}
	switch name {
	case "group":
		if !oneOf(value, GroupType, GroupLevel, GroupPublicPrivate, GroupKeyProject) {
			return invalidValue(name, value)
		}
		v.groupBy = value
		v.renderBars()
	case "pie":
		if !oneOf(value, GroupType, GroupLevel, GroupPublicPrivate, GroupKeyProject) {
			return invalidValue(name, value)
		}
		v.pieBy = value
		if v.side == "" {
			placeholder(v.pie, "请先选择地区，再选择饼图显示方式")
			return nil
		}
		v.renderSide()
	case "region":
		v.side = value
		v.renderSide()
	default:
		return v.unknownControl(name)
	}
	return nil
}

func (v *University) renderBars() {
	if !chart.Guard(v.bars) || len(v.stats) == 0 {
		return
	}
	opt := UniversityOption(v.data.Records, v.stats, v.regions, v.groupBy)
	v.seriesLen = len(opt.Series)
	_ = v.bars.SetOption(opt, true)
}

// UniversityOption builds the per-province bar chart for groupBy.
func UniversityOption(records []csvtable.Record, stats map[string]*ProvinceStats, regions []string, groupBy string) chart.Option {
	title, yName := "各地区高校数量分布", "大学数量"
	var categories, legend []string
	stack := "total"

	switch groupBy {
	case GroupKeyProject:
		categories = keyProjects
		for _, kp := range keyProjects {
			legend = append(legend, kp+"高校数")
		}
		stack = ""
		title, yName = "各地区重点高校建设情况", "重点高校数量"
	case GroupLevel:
		categories = distinct(records, colUniLevel, "未知层次")
		title = "各地区高校办学层次分布"
	case GroupPublicPrivate:
		categories = distinct(records, colUniPubPriv, "未知办学性质")
		title = "各地区高校公办/民办分布"
	default:
		categories = distinct(records, colUniType, "未知类型")
		title = "各地区高校类型分布"
	}
	if legend == nil {
		legend = categories
	}

	series := make([]chart.Series, len(categories))
	for i, cat := range categories {
		data := make([]chart.DataItem, len(regions))
		for j, region := range regions {
			n := 0
			if st := stats[region]; st != nil {
				n = st.group(groupBy)[cat]
			}
			data[j] = chart.DataItem{Value: n}
		}
		series[i] = chart.Series{
			Name:     legend[i],
			Type:     "bar",
			Stack:    stack,
			Emphasis: &chart.Emphasis{Focus: "series"},
			Data:     data,
		}
	}

	return chart.Option{
		Title:   &chart.Title{Text: title, Left: "center"},
		Tooltip: shadowTooltip(),
		Legend:  &chart.Legend{Data: legend, Bottom: 10, Type: "scroll"},
		Grid:    &chart.Grid{Left: "3%", Right: "4%", Bottom: "15%", ContainLabel: true},
		XAxis:   []chart.Axis{categoryAxis(regions, 30)},
		YAxis:   []chart.Axis{{Type: "value", Name: yName}},
		Series:  series,
	}
}

var pieTitles = map[string][2]string{
	GroupType:          {"高校类型分布", "类型分布"},
	GroupLevel:         {"办学层次分布", "层次分布"},
	GroupPublicPrivate: {"公办/民办分布", "办学性质"},
	GroupKeyProject:    {"重点建设分布", "重点项目"},
}

func (v *University) renderSide() {
	_ = v.selector.Update(RegionSelector{Regions: v.regions, Selected: v.side})
	v.renderTable()

	st := v.stats[v.side]
	if v.side == "" || st == nil {
		_ = v.info.Update(UniversityInfo{Region: "请选择地区", Total: "-", C985: "-", C211: "-", Dual: "-"})
		placeholder(v.pie, "请选择地区查看详情")
		return
	}
	_ = v.info.Update(UniversityInfo{
		Region: v.side,
		Total:  datasets.FormatGrouped(float64(st.Total)),
		C985:   datasets.FormatGrouped(float64(st.KeyProjects[Project985])),
		C211:   datasets.FormatGrouped(float64(st.KeyProjects[Project211])),
		Dual:   datasets.FormatGrouped(float64(st.KeyProjects[ProjectDual])),
	})

	if !chart.Guard(v.pie) {
		return
	}
	titles := pieTitles[v.pieBy]
	counts := st.group(v.pieBy)
	names := make([]string, 0, len(counts))
	for name, n := range counts {
		if n > 0 && !(v.pieBy == GroupKeyProject && name == ProjectNonKey) {
			names = append(names, name)
		}
	}
	if v.pieBy == GroupKeyProject {
		names = orderLike(names, keyProjects)
	} else {
		sort.Strings(names)
	}
	if len(names) == 0 {
		placeholder(v.pie, fmt.Sprintf("“%s”地区无有效“%s”数据", v.side, titles[0]))
		_ = v.pie.Resize()
		return
	}

	data := make([]chart.DataItem, len(names))
	for i, name := range names {
		data[i] = chart.DataItem{Name: name, Value: counts[name]}
	}
	_ = v.pie.SetOption(chart.Option{
		Title:   &chart.Title{Text: v.side + " - " + titles[0], Left: "center"},
		Tooltip: &chart.Tooltip{Trigger: "item", Formatter: "{a} <br/>{b} : {c} ({d}%)"},
		Legend:  &chart.Legend{Orient: "vertical", Left: "left", Top: 30, Data: names, Type: "scroll"},
		Series: []chart.Series{{
			Name:   titles[1],
			Type:   "pie",
			Radius: "60%",
			Center: []string{"60%", "55%"},
			Label:  &chart.Label{Show: true, Formatter: "{b}\n{d}%"},
			Data:   data,
		}},
	}, true)
	_ = v.pie.Resize()
}

func (v *University) renderTable() {
	_ = v.table.Update(UniversityRows(v.data, v.side))
}

// UniversityRows lists the institutions of province, without the province and
// address columns. Empty cells read "-".
func UniversityRows(ds *csvtable.Dataset, province string) UniversityTable {
	if ds == nil || ds.Len() == 0 {
		return UniversityTable{Message: "列表数据加载中或无数据..."}
	}
	if province == "" {
		return UniversityTable{Message: "请选择一个地区以查看高校列表。"}
	}

	var headers []string
	for _, h := range ds.Columns {
		if h != datasets.ColProvince && h != colUniAddress {
			headers = append(headers, h)
		}
	}
	var rows [][]string
	for _, rec := range ds.Records {
		if rec.Text(datasets.ColProvince) != province {
			continue
		}
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = orDefault(rec.Text(h), "-")
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return UniversityTable{Message: fmt.Sprintf("“%s”地区没有高校数据。", province)}
	}
	return UniversityTable{Headers: headers, Rows: rows}
}

// distinct returns the sorted distinct values of column, blanks read as fallback.
func distinct(records []csvtable.Record, column, fallback string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, rec := range records {
		v := orDefault(rec.Text(column), fallback)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func orderLike(names, order []string) []string {
	out := make([]string, 0, len(names))
	for _, o := range order {
		if indexOf(names, o) >= 0 {
			out = append(out, o)
		}
	}
	return out
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
