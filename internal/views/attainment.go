package views

import (
	"context"
	"log/slog"

	"edudash/internal/chart"
	"edudash/internal/coordinator"
	"edudash/internal/csvtable"
	"edudash/internal/datasets"
)

// Display modes shared by the stacked-bar views.
const (
	DisplayAbsolute   = "absolute"
	DisplayPercentage = "percentage"
)

// Attainment stacks educational attainment per 100k people by region.
type Attainment struct {
	base
	bars    chart.Chart
	data    *csvtable.Dataset
	regions []string
	display string
}

// NewAttainment creates the attainment view.
func NewAttainment(deps Deps) *Attainment {
	v := &Attainment{
		base:    newBase(NameAttainment, titleAttainment, "人口受教育", deps),
		display: DisplayAbsolute,
	}
	v.bars = v.chart("bars")
	return v
}

func (v *Attainment) Init(ctx context.Context) error {
	ds, err := v.load(ctx, v.bars, datasets.Educated, "人口受教育数据加载中...")
	if err != nil {
		return err
	}
	v.data = ds
	v.regions = make([]string, len(ds.Records))
	for i, rec := range ds.Records {
		v.regions[i] = rec.Text(datasets.ColRegion)
	}
	v.ready = true
	v.render()

	if v.deps.Bus != nil {
		v.deps.Bus.SubscribeRegionChanged(func(ev coordinator.RegionChanged) {
			if v.active() {
				highlightRow(v.bars, v.regions, ev.Region, 1, false)
			}
		})
	}
	v.logger.Info("attainment view initialized", slog.Int("records", ds.Len()))
	return nil
}

func (v *Attainment) Resize() error {
	if !chart.Guard(v.bars) {
		return chart.ErrDisposed
	}
	return v.bars.Resize()
}

// Control handles "display" (absolute or percentage).
func (v *Attainment) Control(_ context.Context, name, value string) error {
	if err := v.requireReady(); err != nil {
		return err
	}
	if name != "display" {
		return v.unknownControl(name)
	}
	if !oneOf(value, DisplayAbsolute, DisplayPercentage) {
		return invalidValue(name, value)
	}
	v.display = value
	v.render()
	return nil
}

func (v *Attainment) render() {
	if !chart.Guard(v.bars) || v.data == nil {
		return
	}
	if v.data.Len() == 0 {
		_ = v.bars.Clear()
		_ = v.bars.ShowMessage("人口受教育数据为空。", false)
		return
	}
	_ = v.bars.SetOption(AttainmentOption(v.data.Records, v.display), true)
	highlightRow(v.bars, v.regions, v.region(), 1, false)
}

// AttainmentOption stacks the attainment levels per region. In percentage mode each
// level is its share of the region's total with one decimal.
func AttainmentOption(records []csvtable.Record, display string) chart.Option {
	percent := display == DisplayPercentage
	regions := make([]string, len(records))
	for i, rec := range records {
		regions[i] = rec.Text(datasets.ColRegion)
	}

	series := make([]chart.Series, len(datasets.AttainmentLevels))
	for i, level := range datasets.AttainmentLevels {
		data := make([]chart.DataItem, len(records))
		for j, rec := range records {
			value := countOf(rec, level)
			if percent {
				total := 0.0
				for _, l := range datasets.AttainmentLevels {
					total += countOf(rec, l)
				}
				value = 0
				if total > 0 {
					value = round(countOf(rec, level)/total*100, 1)
				}
			}
			data[j] = chart.DataItem{Value: value}
		}
		series[i] = chart.Series{
			Name:     level,
			Type:     "bar",
			Stack:    "total",
			Emphasis: &chart.Emphasis{Focus: "series"},
			Label:    &chart.Label{Show: percent, Position: "inside", Formatter: "{c}%"},
			Data:     data,
		}
	}

	yAxis := chart.Axis{Type: "value", Name: "每十万人受教育人数", AxisLabel: &chart.AxisLabel{Formatter: "{value}"}}
	if percent {
		yAxis.Name = "占比 (%)"
		yAxis.AxisLabel.Formatter = "{value}%"
		yAxis.Max = chart.Float(100)
	}

	return chart.Option{
		Tooltip: shadowTooltip(),
		Legend:  &chart.Legend{Data: datasets.AttainmentLevels, Bottom: 10, Type: "scroll"},
		Grid:    &chart.Grid{Left: "3%", Right: "4%", Bottom: "10%", ContainLabel: true},
		XAxis:   []chart.Axis{categoryAxis(regions, 30)},
		YAxis:   []chart.Axis{yAxis},
		Series:  series,
	}
}

// countOf reads a count column, treating null as zero.
func countOf(rec csvtable.Record, column string) float64 {
	f, _ := rec.Float(column)
	return f
}
