package views

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"edudash/internal/chart"
	"edudash/internal/coordinator"
	"edudash/internal/csvtable"
	"edudash/internal/datasets"
	"edudash/internal/rangefilter"
	"edudash/internal/trendline"
)

// ScatterAxis binds one scatter dimension to a column and its filter defaults.
type ScatterAxis struct {
	Column      string
	Name        string
	PercentLike bool
	DefaultMin  float64
	DefaultMax  float64
	// Fixed pins the axis to [0,100] instead of scaling to the data.
	Fixed bool
}

func (a ScatterAxis) control() rangefilter.Control {
	return rangefilter.Control{
		Column:      a.Column,
		Label:       a.Name,
		PercentLike: a.PercentLike,
		DefaultMin:  a.DefaultMin,
		DefaultMax:  a.DefaultMax,
	}
}

func (a ScatterAxis) format(v float64) string {
	switch {
	case a.PercentLike:
		return strconv.FormatFloat(v, 'f', 2, 64) + "%"
	case a.Column == datasets.ColExpenditure:
		return datasets.FormatAxisNumber(v) + " 元"
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

func (a ScatterAxis) axis() chart.Axis {
	ax := chart.Axis{Type: "value", Name: a.Name, Scale: true}
	if a.PercentLike {
		ax.AxisLabel = &chart.AxisLabel{Formatter: "{value}%"}
	}
	if a.Fixed {
		ax.Min, ax.Max = chart.Float(0), chart.Float(100)
	}
	return ax
}

// ScatterSpec describes one bivariate scatter view.
type ScatterSpec struct {
	View    string
	Dataset string
	Title   string
	// Label prefixes user-facing messages.
	Label string
	X     ScatterAxis
	Y     ScatterAxis
}

// ScatterSpecs are the three scatter views in navigation order.
var ScatterSpecs = []ScatterSpec{
	{
		View:    NameQ1,
		Dataset: datasets.Q1,
		Title:   "地区教育经费合计与高等学校入学率关系",
		Label:   "Q1散点图",
		X:       ScatterAxis{Column: datasets.ColExpenditure, Name: "教育经费合计 (元)", DefaultMin: 0, DefaultMax: 5e8},
		Y:       ScatterAxis{Column: datasets.ColEnrollment, Name: "高等学校入学率 (%)", PercentLike: true, DefaultMax: 100, Fixed: true},
	},
	{
		View:    NameQ2,
		Dataset: datasets.Q2,
		Title:   "地区师生比与重点中学比例关系",
		Label:   "Q2散点图",
		X:       ScatterAxis{Column: datasets.ColRatio, Name: "师生比", DefaultMin: 5, DefaultMax: 20},
		Y:       ScatterAxis{Column: datasets.ColKeySchool, Name: "重点中学比例 (%)", PercentLike: true, DefaultMax: 100, Fixed: true},
	},
	{
		View:    NameQ3,
		Dataset: datasets.Q3,
		Title:   "地区一本率与重点中学比例关系",
		Label:   "Q3散点图",
		X:       ScatterAxis{Column: datasets.ColTierOne, Name: "一本率 (%)", PercentLike: true, DefaultMax: 100, Fixed: true},
		Y:       ScatterAxis{Column: datasets.ColKeySchool, Name: "重点中学比例 (%)", PercentLike: true, DefaultMax: 100, Fixed: true},
	},
}

// LookupScatter returns the scatter spec for view.
func LookupScatter(view string) (ScatterSpec, bool) {
	for _, s := range ScatterSpecs {
		if s.View == view {
			return s, true
		}
	}
	return ScatterSpec{}, false
}

// NewFilterSet returns the filter controls of the spec, unseeded.
func (s ScatterSpec) NewFilterSet() *rangefilter.Set {
	return rangefilter.NewSet(s.X.control(), s.Y.control())
}

// Points projects records onto the spec's axes, skipping records missing either value.
func (s ScatterSpec) Points(records []csvtable.Record) ([]trendline.Point, []string) {
	points := make([]trendline.Point, 0, len(records))
	names := make([]string, 0, len(records))
	for _, rec := range records {
		x, okX := rec.Float(s.X.Column)
		y, okY := rec.Float(s.Y.Column)
		if !okX || !okY {
			continue
		}
		points = append(points, trendline.Point{X: x, Y: y})
		names = append(names, rec.Text(datasets.ColRegion))
	}
	return points, names
}

// Scatter is a scatter view with a least-squares trend line.
type Scatter struct {
	base
	spec    ScatterSpec
	plot    chart.Chart
	data    *csvtable.Dataset
	filters *rangefilter.Set
	names   []string
}

// NewScatter creates the view described by spec.
func NewScatter(spec ScatterSpec, deps Deps) *Scatter {
	s := &Scatter{
		base:    newBase(spec.View, spec.Title, spec.Label, deps),
		spec:    spec,
		filters: spec.NewFilterSet(),
	}
	s.plot = s.chart("scatter")
	return s
}

func (s *Scatter) Init(ctx context.Context) error {
	ds, err := s.load(ctx, s.plot, s.spec.Dataset, s.spec.Label+"数据加载中...")
	if err != nil {
		return err
	}
	s.data = ds
	s.filters.Seed(ds.Records)
	s.ready = true
	s.render()

	if s.deps.Bus != nil {
		s.deps.Bus.SubscribeRegionChanged(func(coordinator.RegionChanged) {
			if s.active() && chart.Guard(s.plot) {
				s.render()
			}
		})
	}
	s.logger.Info("scatter view initialized", slog.Int("records", ds.Len()))
	return nil
}

func (s *Scatter) Resize() error {
	if !chart.Guard(s.plot) {
		return chart.ErrDisposed
	}
	return s.plot.Resize()
}

func (s *Scatter) Control(_ context.Context, name, value string) error {
	if err := s.requireReady(); err != nil {
		return err
	}
	handled, err := applyRangeControl(s.filters, name, value)
	if !handled {
		return s.unknownControl(name)
	}
	if err != nil {
		return err
	}
	s.render()
	return nil
}

func (s *Scatter) Bounds() []rangefilter.ControlState { return s.filters.States() }

// Trend returns the fit over the currently filtered points.
func (s *Scatter) Trend() trendline.Line {
	if s.data == nil {
		return trendline.Compute(nil)
	}
	points, _ := s.spec.Points(rangefilter.Apply(s.data.Records, s.filters.Predicate()))
	return trendline.Compute(points)
}

func (s *Scatter) render() {
	if !chart.Guard(s.plot) || s.data == nil {
		return
	}
	if s.data.Len() == 0 {
		_ = s.plot.Clear()
		_ = s.plot.ShowMessage(s.spec.Label+"无数据显示。", false)
		return
	}

	filtered := rangefilter.Apply(s.data.Records, s.filters.Predicate())
	points, names := s.spec.Points(filtered)
	s.names = names

	items := make([]chart.DataItem, len(points))
	for i, p := range points {
		items[i] = chart.DataItem{
			Name:  names[i],
			Value: []float64{p.X, p.Y},
			Tooltip: &chart.ItemTooltip{Formatter: fmt.Sprintf(
				"<strong>地区: %s</strong><br/>%s: %s<br/>%s: %s",
				names[i], s.spec.X.Column, s.spec.X.format(p.X), s.spec.Y.Column, s.spec.Y.format(p.Y),
			)},
		}
	}

	var trend []chart.DataItem
	if len(points) > 1 {
		for _, p := range trendline.Compute(points).Endpoints {
			trend = append(trend, chart.DataItem{Value: []float64{p.X, p.Y}})
		}
	}
	if trend == nil {
		trend = []chart.DataItem{}
	}

	opt := chart.Option{
		Title:   &chart.Title{Text: s.spec.Title, Left: "center"},
		Tooltip: &chart.Tooltip{Trigger: "item"},
		XAxis:   []chart.Axis{s.spec.X.axis()},
		YAxis:   []chart.Axis{s.spec.Y.axis()},
		Series: []chart.Series{
			{
				Name:       "地区数据",
				Type:       "scatter",
				Data:       items,
				SymbolSize: 8,
				Emphasis:   &chart.Emphasis{Focus: "series"},
				ItemStyle:  &chart.ItemStyle{Color: "#2f79f9"},
			},
			{
				Name:       "趋势线",
				Type:       "line",
				Data:       trend,
				ShowSymbol: chart.Bool(false),
				LineStyle:  &chart.LineStyle{Type: "dashed", Width: 2},
				ItemStyle:  &chart.ItemStyle{Color: "#ff7f50"},
			},
		},
	}
	_ = s.plot.SetOption(opt, true)
	s.highlight()
}

func (s *Scatter) highlight() {
	_ = s.plot.DispatchAction(chart.Action{Type: chart.ActionDownplay, SeriesIndex: 0})
	region := s.region()
	if region == coordinator.AllRegions {
		return
	}
	if idx := indexOf(s.names, region); idx >= 0 {
		_ = s.plot.DispatchAction(chart.HighlightPoint(chart.ActionHighlight, 0, idx))
		_ = s.plot.DispatchAction(chart.HighlightPoint(chart.ActionShowTip, 0, idx))
	}
}
