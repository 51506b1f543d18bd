// Package trendline fits an ordinary least-squares line to scatter points and produces
// the two endpoints used to draw it over the chart.
package trendline

import "math"

// Point is one (x, y) observation.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fit returns the least-squares slope and intercept of points.
// When the x spread is degenerate (including n <= 1) the slope is 0 and the
// intercept is the mean of y, or 0 for no points.
func Fit(points []Point) (slope, intercept float64) {
	n := float64(len(points))
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY float64
	minX, maxX := points[0].X, points[0].X
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	meanX, meanY := sumX/n, sumY/n

	// Identical x is tested on the raw values: rounding in the sums leaves a
	// tiny nonzero spread that would otherwise yield an arbitrary slope.
	if minX == maxX {
		return 0, meanY
	}

	var sxx, sxy float64
	for _, p := range points {
		dx := p.X - meanX
		sxx += dx * dx
		sxy += dx * (p.Y - meanY)
	}
	if sxx == 0 {
		return 0, meanY
	}
	slope = sxy / sxx
	intercept = meanY - slope*meanX
	return slope, intercept
}

// RenderEndpoints evaluates the line at the smallest and largest x of points.
// It returns nil for fewer than two points or non-finite extremes.
func RenderEndpoints(points []Point, slope, intercept float64) []Point {
	if len(points) < 2 {
		return nil
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	if math.IsInf(minX, 0) || math.IsInf(maxX, 0) || math.IsNaN(minX) || math.IsNaN(maxX) {
		return nil
	}
	return []Point{
		{X: minX, Y: slope*minX + intercept},
		{X: maxX, Y: slope*maxX + intercept},
	}
}

// Line bundles a fit with its drawable endpoints.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Endpoints []Point `json:"endpoints"`
}

// Compute fits points and renders the endpoints in one step.
func Compute(points []Point) Line {
	slope, intercept := Fit(points)
	return Line{
		Slope:     slope,
		Intercept: intercept,
		Endpoints: RenderEndpoints(points, slope, intercept),
	}
}
