package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"edudash/internal/chart"
	"edudash/internal/coordinator"
	"edudash/internal/csvtable"
	"edudash/internal/datasets"
)

// Indicator is one selectable comparison metric.
type Indicator struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Unit   string `json:"unit"`
	Column string `json:"-"`
}

// Indicators are the comparison metrics in selector order. 高等教育毛入学率 is read
// from the 高等学校入学率 column.
var Indicators = []Indicator{
	{ID: datasets.ColTierOne, Name: "一本率", Unit: "%", Column: datasets.ColTierOne},
	{ID: datasets.ColKeySchool, Name: "重点中学比例", Unit: "%", Column: datasets.ColKeySchool},
	{ID: datasets.ColRatio, Name: "师生比", Column: datasets.ColRatio},
	{ID: "高等教育毛入学率", Name: "高等教育毛入学率", Unit: "%", Column: datasets.ColEnrollment},
	{ID: datasets.ColExpenditure, Name: "教育经费合计", Unit: "元", Column: datasets.ColExpenditure},
}

var comparisonPalette = []string{"#5470c6", "#91cc75", "#fac858", "#ee6666", "#73c0de", "#3ba272", "#fc8452", "#9a60b4", "#ea7ccc"}

func lookupIndicator(id string) (Indicator, bool) {
	for _, ind := range Indicators {
		if ind.ID == id {
			return ind, true
		}
	}
	return Indicator{}, false
}

// ComparisonSelectors lists what the page can offer as checkboxes.
type ComparisonSelectors struct {
	Regions    []string    `json:"regions"`
	Indicators []Indicator `json:"indicators"`
	Message    string      `json:"message,omitempty"`
}

// Comparison draws grouped bars for chosen regions and indicators, one y-axis per unit.
// Its data is the map's all_data, received through DataReady.
type Comparison struct {
	base
	bars       chart.Chart
	selectors  chart.Panel
	records    []csvtable.Record
	loaded     bool
	failed     error
	regions    []string
	indicators []string
}

// NewComparison creates the comparison view.
func NewComparison(deps Deps) *Comparison {
	v := &Comparison{base: newBase(NameComparison, titleComparison, "对比图表", deps)}
	v.bars = v.chart("bars")
	v.selectors = v.panel("selectors")
	return v
}

// Init subscribes to DataReady and DataFailed; either may replay immediately.
func (v *Comparison) Init(context.Context) error {
	if v.deps.Bus == nil {
		return fmt.Errorf("comparison view: no coordinator")
	}
	v.deps.Bus.SubscribeDataReady(v.onData)
	v.deps.Bus.SubscribeDataFailed(func(ev coordinator.DataFailed) {
		v.failed = ev.Err
		v.fail(v.bars, ev.Err)
		_ = v.selectors.Update(ComparisonSelectors{Message: "地区数据尚未加载。"})
	})
	v.ready = true
	if !v.loaded && v.failed == nil {
		_ = v.selectors.Update(ComparisonSelectors{Message: "地区数据尚未加载。"})
		if chart.Guard(v.bars) {
			_ = v.bars.ShowMessage("数据未加载或图表容器不存在。", false)
		}
	}
	return nil
}

func (v *Comparison) onData(ev coordinator.DataReady) {
	v.records = ev.Records
	v.loaded = true
	v.failed = nil

	regions := sortedRegions(ev.Records, datasets.ColRegion)

	var available []Indicator
	for _, ind := range Indicators {
		if len(csvtable.Values(ev.Records, ind.Column)) > 0 {
			available = append(available, ind)
		}
	}

	sel := ComparisonSelectors{Regions: regions, Indicators: available}
	switch {
	case len(regions) == 0:
		sel.Message = "未能提取到地区列表。"
	case len(available) == 0:
		sel.Message = "未能提取到可用指标列表。"
	}
	_ = v.selectors.Update(sel)
	v.logger.Debug("comparison data received", slog.Int("records", len(ev.Records)))
	v.render()
}

func (v *Comparison) Resize() error {
	if !chart.Guard(v.bars) {
		return chart.ErrDisposed
	}
	return v.bars.Resize()
}

// Control handles "regions" and "indicators", both comma separated.
func (v *Comparison) Control(_ context.Context, name, value string) error {
	if err := v.requireReady(); err != nil {
		return err
	}
	switch name {
	case "regions":
		v.regions = splitList(value)
	case "indicators":
		ids := splitList(value)
		for _, id := range ids {
			if _, ok := lookupIndicator(id); !ok {
				return invalidValue(name, id)
			}
		}
		v.indicators = ids
	default:
		return v.unknownControl(name)
	}
	v.render()
	return nil
}

func (v *Comparison) render() {
	if !chart.Guard(v.bars) || !v.loaded {
		return
	}
	if len(v.regions) == 0 || len(v.indicators) == 0 {
		_ = v.bars.Clear()
		_ = v.bars.ShowMessage("请至少选择一个地区和一个指标。", false)
		return
	}
	_ = v.bars.SetOption(ComparisonOption(v.records, v.regions, v.indicators), true)
}

// ComparisonOption builds the grouped bar chart for regions x indicator ids.
func ComparisonOption(records []csvtable.Record, regions, indicatorIDs []string) chart.Option {
	byRegion := make(map[string]csvtable.Record, len(records))
	for _, rec := range records {
		name := rec.Text(datasets.ColRegion)
		if _, ok := byRegion[name]; !ok {
			byRegion[name] = rec
		}
	}

	var (
		legend []string
		series []chart.Series
		axes   []chart.Axis
	)
	axisByUnit := make(map[string]int)
	for i, id := range indicatorIDs {
		ind, ok := lookupIndicator(id)
		if !ok {
			continue
		}
		legend = append(legend, ind.Name)

		axisIndex, ok := axisByUnit[ind.Unit]
		if !ok {
			axisIndex = len(axes)
			axisByUnit[ind.Unit] = axisIndex
			axes = append(axes, unitAxis(ind, axisIndex))
		}

		data := make([]chart.DataItem, len(regions))
		for j, region := range regions {
			data[j] = chart.DataItem{Value: nil}
			if f, ok := byRegion[region].Float(ind.Column); ok {
				data[j].Value = f
			}
		}
		series = append(series, chart.Series{
			Name:       ind.Name,
			Type:       "bar",
			YAxisIndex: axisIndex,
			BarGap:     "20%",
			Emphasis:   &chart.Emphasis{Focus: "series"},
			ItemStyle:  &chart.ItemStyle{Color: comparisonPalette[i%len(comparisonPalette)]},
			Data:       data,
		})
	}
	if len(axes) == 0 {
		axes = append(axes, chart.Axis{Type: "value", Name: "数值"})
	}

	rotate := 0
	switch {
	case len(regions) > 5:
		rotate = 30
	case len(regions) > 3:
		rotate = 15
	}
	bottom := "12%"
	if len(legend) > 6 {
		bottom = "18%"
	}

	return chart.Option{
		Title:   &chart.Title{Text: "区域指标对比分析", Subtext: "地区: " + strings.Join(regions, ", "), Left: "center"},
		Tooltip: shadowTooltip(),
		Legend:  &chart.Legend{Data: legend, Bottom: 10, Type: "scroll"},
		Grid: &chart.Grid{
			Left:         gridSide(axes, "left", "3%"),
			Right:        gridSide(axes, "right", "4%"),
			Bottom:       bottom,
			ContainLabel: true,
		},
		XAxis:  []chart.Axis{categoryAxis(regions, rotate)},
		YAxis:  axes,
		Series: series,
	}
}

// unitAxis alternates axes left and right, pushing each extra pair outwards.
func unitAxis(ind Indicator, index int) chart.Axis {
	ax := chart.Axis{
		Type:      "value",
		Name:      ind.Name,
		Position:  "left",
		SplitLine: &chart.SplitLine{Show: index == 0},
		AxisLabel: &chart.AxisLabel{Formatter: "{value}"},
	}
	if index%2 != 0 {
		ax.Position = "right"
	}
	if index > 1 {
		ax.Offset = (index / 2) * 65
	}
	switch ind.Unit {
	case "%":
		ax.Name = ind.Name + " (%)"
		ax.AxisLabel.Formatter = "{value}%"
	case "元":
		ax.Name = ind.Name + " (元)"
	}
	return ax
}

func gridSide(axes []chart.Axis, side, fallback string) string {
	width := fallback
	for _, ax := range axes {
		if ax.Position != side {
			continue
		}
		if ax.Offset > 0 {
			return "12%"
		}
		width = "5%"
	}
	return width
}
