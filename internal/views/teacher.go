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

// Teacher stacking dimensions.
const (
	StackEducation = "education"
	StackTitle     = "title"
)

// TotalRow is the summary row of teacher.csv, excluded from every chart.
const TotalRow = "总计"

var (
	// TeacherEducationLevels are the qualification columns of teacher.csv.
	TeacherEducationLevels = []string{"博士研究生", "硕士研究生", "本科毕业", "专科毕业", "高中阶段毕业", "高中阶段毕业以下"}
	// TeacherTitles are the professional title columns of teacher.csv.
	TeacherTitles = []string{"正高级", "副高级", "中级", "助理级", "员级", "未定职级"}
)

// RegionSelector is the state of a view-local region dropdown.
type RegionSelector struct {
	Regions  []string `json:"regions"`
	Selected string   `json:"selected"`
}

// Teacher shows teacher structure as stacked bars plus two pies for one region.
type Teacher struct {
	base
	bars      chart.Chart
	eduPie    chart.Chart
	titlePie  chart.Chart
	selector  chart.Panel
	records   []csvtable.Record
	regions   []string
	pieRegion string
	stackBy   string
	display   string
}

// NewTeacher creates the teacher structure view.
func NewTeacher(deps Deps) *Teacher {
	v := &Teacher{
		base:    newBase(NameTeacher, titleTeacher, "教师结构", deps),
		stackBy: StackEducation,
		display: DisplayAbsolute,
	}
	v.bars = v.chart("bars")
	v.eduPie = v.chart("education-pie")
	v.titlePie = v.chart("title-pie")
	v.selector = v.panel("pie-region")
	return v
}

func (v *Teacher) Init(ctx context.Context) error {
	ds, err := v.load(ctx, v.bars, datasets.Teacher, "教师结构数据加载中...")
	if err != nil {
		return err
	}
	for _, rec := range ds.Records {
		if rec.Text(datasets.ColRegion) == TotalRow {
			continue
		}
		v.records = append(v.records, rec)
	}
	v.regions = sortedRegions(v.records, datasets.ColRegion)

	v.pieRegion = ""
	if global := v.region(); global != coordinator.AllRegions && indexOf(v.regions, global) >= 0 {
		v.pieRegion = global
	} else if len(v.regions) > 0 {
		v.pieRegion = v.regions[0]
	}
	v.ready = true
	v.publishSelector()
	v.render()

	if v.deps.Bus != nil {
		v.deps.Bus.SubscribeRegionChanged(func(ev coordinator.RegionChanged) {
			if v.active() {
				v.onRegion(ev.Region)
			}
		})
	}
	v.logger.Info("teacher view initialized", slog.Int("records", len(v.records)))
	return nil
}

func (v *Teacher) onRegion(region string) {
	highlightRow(v.bars, v.categories(), region, 1, false)
	switch {
	case region != coordinator.AllRegions && indexOf(v.regions, region) >= 0:
		v.pieRegion = region
	case region == coordinator.AllRegions && len(v.regions) > 0:
		v.pieRegion = v.regions[0]
	default:
		v.pieRegion = ""
	}
	v.publishSelector()
	v.renderPies()
}

func (v *Teacher) Resize() error {
	for _, c := range []chart.Chart{v.bars, v.eduPie, v.titlePie} {
		if !chart.Guard(c) {
			return chart.ErrDisposed
		}
		if err := c.Resize(); err != nil {
			return err
		}
	}
	return nil
}

// Control handles "stack" (education|title), "display" (absolute|percentage) and
// "region" (pie region).
func (v *Teacher) Control(_ context.Context, name, value string) error {
	if err := v.requireReady(); err != nil {
		return err
	}
	switch name {
	case "stack":
		if !oneOf(value, StackEducation, StackTitle) {
			return invalidValue(name, value)
		}
		v.stackBy = value
		v.render()
	case "display":
		if !oneOf(value, DisplayAbsolute, DisplayPercentage) {
			return invalidValue(name, value)
		}
		v.display = value
		v.render()
	case "region":
		v.pieRegion = value
		v.publishSelector()
		v.renderPies()
	default:
		return v.unknownControl(name)
	}
	return nil
}

func (v *Teacher) publishSelector() {
	_ = v.selector.Update(RegionSelector{Regions: v.regions, Selected: v.pieRegion})
}

func (v *Teacher) categories() []string {
	out := make([]string, len(v.records))
	for i, rec := range v.records {
		out[i] = rec.Text(datasets.ColRegion)
	}
	return out
}

func (v *Teacher) render() {
	if !chart.Guard(v.bars) || !v.ready {
		return
	}
	if len(v.records) == 0 {
		_ = v.bars.Clear()
		_ = v.bars.ShowMessage("教师结构数据为空。", false)
		v.renderPies()
		return
	}
	_ = v.bars.SetOption(TeacherOption(v.records, v.stackBy, v.display), true)
	v.renderPies()
}

func (v *Teacher) renderPies() {
	region := v.pieRegion
	if len(v.records) == 0 || region == "" || region == coordinator.AllRegions {
		placeholder(v.eduPie, "请选择一个地区查看学历构成饼图")
		placeholder(v.titlePie, "请选择一个地区查看职称构成饼图")
		return
	}
	var rec csvtable.Record
	for _, r := range v.records {
		if r.Text(datasets.ColRegion) == region {
			rec = r
			break
		}
	}
	if rec == nil {
		placeholder(v.eduPie, fmt.Sprintf("无“%s”地区的学历数据", region))
		placeholder(v.titlePie, fmt.Sprintf("无“%s”地区的职称数据", region))
		return
	}
	renderPie(v.eduPie, rec, region, TeacherEducationLevels, "学历构成", fmt.Sprintf("“%s”地区无有效学历数据", region))
	renderPie(v.titlePie, rec, region, TeacherTitles, "职称构成", fmt.Sprintf("“%s”地区无有效职称数据", region))
}

func renderPie(c chart.Chart, rec csvtable.Record, region string, columns []string, name, empty string) {
	if !chart.Guard(c) {
		return
	}
	var data []chart.DataItem
	var legend []string
	for _, col := range columns {
		if n := countOf(rec, col); n > 0 {
			data = append(data, chart.DataItem{Name: col, Value: n})
			legend = append(legend, col)
		}
	}
	if len(data) == 0 {
		placeholder(c, empty)
	} else {
		_ = c.SetOption(chart.Option{
			Title:   &chart.Title{Text: region + " - " + name, Left: "center"},
			Tooltip: &chart.Tooltip{Trigger: "item", Formatter: "{a} <br/>{b} : {c}人 ({d}%)"},
			Legend:  &chart.Legend{Orient: "vertical", Left: "left", Top: 30, Data: legend, Type: "scroll"},
			Series: []chart.Series{{
				Name:   name,
				Type:   "pie",
				Radius: []string{"40%", "65%"},
				Center: []string{"55%", "55%"},
				Label:  &chart.Label{Show: true, Formatter: "{b}\n{d}%"},
				Data:   data,
			}},
		}, true)
	}
	_ = c.Resize()
}

// TeacherOption stacks either qualifications or titles per region. Percentages are
// shares of the region's total over the stacked columns, two decimals.
func TeacherOption(records []csvtable.Record, stackBy, display string) chart.Option {
	columns := TeacherEducationLevels
	if stackBy == StackTitle {
		columns = TeacherTitles
	}
	percent := display == DisplayPercentage

	regions := make([]string, len(records))
	totals := make([]float64, len(records))
	for i, rec := range records {
		regions[i] = rec.Text(datasets.ColRegion)
		for _, col := range columns {
			totals[i] += countOf(rec, col)
		}
	}

	series := make([]chart.Series, len(columns))
	for i, col := range columns {
		data := make([]chart.DataItem, len(records))
		for j, rec := range records {
			value := countOf(rec, col)
			if percent {
				if totals[j] > 0 {
					value = round(value/totals[j]*100, 2)
				} else {
					value = 0
				}
			}
			data[j] = chart.DataItem{Value: value}
		}
		series[i] = chart.Series{
			Name:     col,
			Type:     "bar",
			Stack:    "total",
			Emphasis: &chart.Emphasis{Focus: "series"},
			Label:    &chart.Label{Show: percent, Position: "inside", Formatter: "{c}%"},
			Data:     data,
		}
	}

	yAxis := chart.Axis{Type: "value", Name: "教师数量 (人)", AxisLabel: &chart.AxisLabel{Formatter: "{value}"}}
	if percent {
		yAxis.Name = "占比 (%)"
		yAxis.AxisLabel.Formatter = "{value}%"
		yAxis.Max = chart.Float(100)
	}

	return chart.Option{
		Tooltip: shadowTooltip(),
		Legend:  &chart.Legend{Data: columns, Bottom: 10, Type: "scroll"},
		Grid:    &chart.Grid{Left: "3%", Right: "4%", Bottom: "15%", ContainLabel: true},
		XAxis:   []chart.Axis{categoryAxis(regions, 30)},
		YAxis:   []chart.Axis{yAxis},
		Series:  series,
	}
}

func sortedRegions(records []csvtable.Record, column string) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, rec := range records {
		name := rec.Text(column)
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
