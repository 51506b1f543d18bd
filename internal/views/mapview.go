package views

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"edudash/internal/chart"
	"edudash/internal/coordinator"
	"edudash/internal/csvtable"
	"edudash/internal/datasets"
	"edudash/internal/rangefilter"
)

// MapName is the name the GeoJSON is registered under.
const MapName = "china"

var mapPalette = []string{"#096DD9", "#1890FF", "#40A9FF", "#69C0FF", "#91D5FF", "#BAE7FF", "#E6F7FF"}

// MapControls is the selector state the page needs to draw the map toolbar.
type MapControls struct {
	Regions []string                   `json:"regions"`
	Metrics []datasets.Metric          `json:"metrics"`
	Metric  string                     `json:"metric"`
	Filters []rangefilter.ControlState `json:"filters"`
}

// Map is the choropleth. It owns all_data and announces it on the bus.
type Map struct {
	base
	canvas   chart.Chart
	controls chart.Panel
	data     *csvtable.Dataset
	metrics  []datasets.Metric
	metric   string
	filters  *rangefilter.Set
}

// NewMap creates the map view. deps.Geo must be set.
func NewMap(deps Deps) *Map {
	ctrls := make([]rangefilter.Control, len(datasets.MapMetrics))
	for i, m := range datasets.MapMetrics {
		ctrls[i] = rangefilter.Control{
			Column:       m.Key,
			Label:        m.Label,
			PercentLike:  m.PercentLike,
			DefaultMin:   m.DefaultMin,
			DefaultMax:   m.DefaultMax,
			OpenEndedMax: m.OpenEnded,
		}
	}
	v := &Map{
		base:    newBase(NameMap, titleMap, "全局地图", deps),
		filters: rangefilter.NewSet(ctrls...),
	}
	v.canvas = v.chart("main")
	v.controls = v.panel("controls")
	return v
}

// Init loads the geometry and all_data, then publishes DataReady or DataFailed.
func (v *Map) Init(ctx context.Context) error {
	if chart.Guard(v.canvas) {
		_ = v.canvas.ShowLoading("全局地图数据加载中...")
	}
	err := v.loadAll(ctx)
	if chart.Guard(v.canvas) {
		_ = v.canvas.HideLoading()
	}
	if err != nil {
		if v.deps.Bus != nil {
			v.deps.Bus.PublishDataFailed(coordinator.DataFailed{Err: err})
		}
		v.fail(v.canvas, err)
		return err
	}

	if v.deps.Bus != nil {
		v.deps.Bus.PublishDataReady(coordinator.DataReady{Records: v.data.Records, Regions: v.data.Regions()})
	}

	v.metrics = datasets.AvailableMetrics(v.data.Records)
	if len(v.metrics) > 0 {
		v.metric = v.metrics[0].Key
	}
	v.filters.Seed(v.data.Records)
	v.ready = true
	v.publishControls()
	v.render()

	if v.deps.Bus != nil {
		v.deps.Bus.SubscribeRegionChanged(func(coordinator.RegionChanged) {
			if v.active() && chart.Guard(v.canvas) {
				v.render()
			}
		})
	}
	v.logger.Info("map view initialized",
		slog.Int("records", v.data.Len()),
		slog.Int("metrics", len(v.metrics)))
	return nil
}

func (v *Map) loadAll(ctx context.Context) error {
	if v.deps.Geo == nil {
		return fmt.Errorf("map view: no geometry source")
	}
	geo, err := v.deps.Geo.Map(ctx)
	if err != nil {
		return err
	}
	ds, err := v.deps.Data.Load(ctx, datasets.AllData)
	if err != nil {
		return err
	}
	if chart.Guard(v.canvas) {
		_ = v.canvas.RegisterMap(MapName, geo.Raw())
	}
	v.data = ds
	return nil
}

func (v *Map) Resize() error {
	if !chart.Guard(v.canvas) {
		return chart.ErrDisposed
	}
	return v.canvas.Resize()
}

// Control handles "metric" and "<metric>.min" / "<metric>.max".
func (v *Map) Control(_ context.Context, name, value string) error {
	if err := v.requireReady(); err != nil {
		return err
	}
	if name == "metric" {
		if !v.hasMetric(value) {
			return invalidValue(name, value)
		}
		v.metric = value
	} else {
		handled, err := applyRangeControl(v.filters, name, value)
		if !handled {
			return v.unknownControl(name)
		}
		if err != nil {
			return err
		}
	}
	v.publishControls()
	v.render()
	return nil
}

func (v *Map) Bounds() []rangefilter.ControlState { return v.filters.States() }

// Metric returns the metric currently coloring the map.
func (v *Map) Metric() string { return v.metric }

func (v *Map) hasMetric(key string) bool {
	for _, m := range v.metrics {
		if m.Key == key {
			return true
		}
	}
	return false
}

func (v *Map) publishControls() {
	err := v.controls.Update(MapControls{
		Regions: v.data.Regions(),
		Metrics: v.metrics,
		Metric:  v.metric,
		Filters: v.filters.States(),
	})
	if err != nil {
		v.logger.Warn("map controls update failed", slog.String("error", err.Error()))
	}
}

func (v *Map) render() {
	if !chart.Guard(v.canvas) || v.data == nil {
		return
	}
	if v.data.Len() == 0 || v.metric == "" {
		_ = v.canvas.Clear()
		_ = v.canvas.ShowMessage("地图无有效数据或指标可供显示", false)
		return
	}

	filtered := rangefilter.Apply(v.data.Records, v.filters.Predicate())
	items := make([]chart.DataItem, 0, len(filtered))
	values := make([]float64, 0, len(filtered))
	for _, rec := range filtered {
		f, ok := rec.Float(v.metric)
		if !ok || math.IsNaN(f) {
			continue
		}
		values = append(values, f)
		items = append(items, chart.DataItem{
			Name:    rec.Text(datasets.ColMapName),
			Value:   f,
			Tooltip: &chart.ItemTooltip{Formatter: mapTooltip(rec)},
		})
	}

	lo, hi := VisualRange(v.metric, values, csvtable.Values(v.data.Records, v.metric))
	opt := chart.Option{
		Title:   &chart.Title{Text: fmt.Sprintf("各地区%s概览", v.metric), Left: "center"},
		Tooltip: &chart.Tooltip{Trigger: "item"},
		VisualMap: &chart.VisualMap{
			Min:    lo,
			Max:    hi,
			Left:   "5%",
			Bottom: "5%",
			Text: []string{
				fmt.Sprintf("高 (%s)", datasets.FormatMetricNumber(v.metric, hi)),
				fmt.Sprintf("低 (%s)", datasets.FormatMetricNumber(v.metric, lo)),
			},
			Calculable: true,
			InRange:    &chart.InRange{Color: mapPalette},
		},
		Geo: &chart.Geo{Map: MapName, Roam: true, SelectedMode: "single"},
		Series: []chart.Series{{
			Name:     v.metric,
			Type:     "map",
			GeoIndex: chart.Int(0),
			Data:     items,
		}},
	}
	_ = v.canvas.SetOption(opt, true)
	v.highlight()
}

func (v *Map) highlight() {
	_ = v.canvas.DispatchAction(chart.Downplay())
	region := v.region()
	if region == coordinator.AllRegions {
		return
	}
	name := datasets.MapRegionName(region)
	_ = v.canvas.DispatchAction(chart.HighlightName(chart.ActionHighlight, 0, name))
	_ = v.canvas.DispatchAction(chart.HighlightName(chart.ActionSelect, 0, name))
	_ = v.canvas.DispatchAction(chart.HighlightName(chart.ActionShowTip, 0, name))
}

// VisualRange picks the color scale for metric: the filtered values, else every
// value, else a per-metric default. Equal ends are widened so the scale never
// collapses.
func VisualRange(metric string, filtered, all []float64) (float64, float64) {
	var lo, hi float64
	switch {
	case len(filtered) > 0:
		lo, hi = extent(filtered)
	case len(all) > 0:
		lo, hi = extent(all)
	default:
		lo = 0
		switch {
		case strings.Contains(metric, "率") || strings.Contains(metric, "比例"):
			hi = 100
		case metric == datasets.ColExpenditure:
			hi = 1e8
		default:
			hi = 30
		}
	}

	if lo == hi {
		if lo == 0 {
			hi = 1
		} else {
			lo, hi = lo*0.9, hi*1.1
		}
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func extent(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, f := range values[1:] {
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	return lo, hi
}

func mapTooltip(rec csvtable.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<strong>地区: %s</strong><br/>", rec.Text(datasets.ColRegion))
	for _, m := range datasets.MapMetrics {
		label, _, _ := strings.Cut(m.Label, " (")
		fmt.Fprintf(&b, "%s: %s", label, datasets.FormatMetricValue(m.Key, rec.Get(m.Key)))
		if m.Unit == "元" {
			b.WriteString(" 元")
		}
		b.WriteString("<br/>")
	}
	return b.String()
}
