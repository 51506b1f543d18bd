package exporter

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"edudash/internal/trendline"
)

// Default PNG size.
const (
	DefaultPlotWidth  = 8 * vg.Inch
	DefaultPlotHeight = 6 * vg.Inch
)

var (
	pointColor = color.RGBA{R: 0x54, G: 0x70, B: 0xc6, A: 0xff}
	trendColor = color.RGBA{R: 0xee, G: 0x66, B: 0x66, A: 0xff}
)

// ScatterPlot is everything needed to draw one scatter chart.
type ScatterPlot struct {
	Title  string
	XLabel string
	YLabel string
	Points []trendline.Point
	// Labels name Points by index; missing entries draw no label.
	Labels []string
	// Trend holds the trend line endpoints. Fewer than two draws no line.
	Trend  []trendline.Point
	Width  vg.Length
	Height vg.Length
}

// RenderScatterPNG draws sp as a PNG image to w.
func RenderScatterPNG(w io.Writer, sp ScatterPlot) error {
	p := plot.New()
	p.Title.Text = sp.Title
	p.X.Label.Text = sp.XLabel
	p.Y.Label.Text = sp.YLabel
	p.Add(plotter.NewGrid())

	if len(sp.Points) > 0 {
		xys := make(plotter.XYs, len(sp.Points))
		labels := make([]string, len(sp.Points))
		for i, pt := range sp.Points {
			xys[i].X, xys[i].Y = pt.X, pt.Y
			if i < len(sp.Labels) {
				labels[i] = sp.Labels[i]
			}
		}

		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("scatter points: %w", err)
		}
		scatter.GlyphStyle.Color = pointColor
		scatter.GlyphStyle.Radius = vg.Points(4)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)

		names, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return fmt.Errorf("scatter labels: %w", err)
		}
		names.Offset = vg.Point{X: vg.Points(5), Y: vg.Points(3)}
		p.Add(names)
	}

	if len(sp.Trend) >= 2 {
		xys := make(plotter.XYs, len(sp.Trend))
		for i, pt := range sp.Trend {
			xys[i].X, xys[i].Y = pt.X, pt.Y
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("trend line: %w", err)
		}
		line.Color = trendColor
		line.Width = vg.Points(2)
		line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(line)
		p.Legend.Add("趋势线", line)
	}

	width, height := sp.Width, sp.Height
	if width <= 0 {
		width = DefaultPlotWidth
	}
	if height <= 0 {
		height = DefaultPlotHeight
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
