// Package geomap reads the province FeatureCollection the choropleth is drawn on.
package geomap

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
)

// NameProperty is the feature property holding the administrative name.
const NameProperty = "name"

// Bounds is a lon/lat bounding box.
type Bounds struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Center returns the middle of the box.
func (b Bounds) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

type region struct {
	name     string
	geometry geom.T
	bounds   Bounds
}

// Map is a parsed FeatureCollection. Raw keeps the original bytes for the page.
type Map struct {
	raw     []byte
	regions []region
	index   map[string]int
}

// Parse decodes a GeoJSON FeatureCollection. Features without a name are ignored.
func Parse(data []byte) (*Map, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
	}

	m := &Map{
		raw:   data,
		index: make(map[string]int, len(fc.Features)),
	}
	for _, f := range fc.Features {
		name, _ := f.Properties[NameProperty].(string)
		if name == "" || f.Geometry == nil {
			continue
		}
		b := f.Geometry.Bounds()
		if _, dup := m.index[name]; dup {
			continue
		}
		m.index[name] = len(m.regions)
		m.regions = append(m.regions, region{
			name:     name,
			geometry: f.Geometry,
			bounds: Bounds{
				MinLon: b.Min(0), MinLat: b.Min(1),
				MaxLon: b.Max(0), MaxLat: b.Max(1),
			},
		})
	}
	if len(m.regions) == 0 {
		return nil, fmt.Errorf("GeoJSON has no named features")
	}
	return m, nil
}

// Raw returns the original document.
func (m *Map) Raw() []byte { return m.raw }

// Len reports the number of named features.
func (m *Map) Len() int { return len(m.regions) }

// Names returns the feature names in sorted order.
func (m *Map) Names() []string {
	names := make([]string, len(m.regions))
	for i, r := range m.regions {
		names[i] = r.name
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is a feature of the map.
func (m *Map) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Bounds returns the bounding box of the named feature.
func (m *Map) Bounds(name string) (Bounds, bool) {
	i, ok := m.index[name]
	if !ok {
		return Bounds{}, false
	}
	return m.regions[i].bounds, true
}

// RegionAt returns the feature whose outer ring contains the point.
func (m *Map) RegionAt(lon, lat float64) (string, bool) {
	p := geom.Coord{lon, lat}
	for _, r := range m.regions {
		b := r.bounds
		if lon < b.MinLon || lon > b.MaxLon || lat < b.MinLat || lat > b.MaxLat {
			continue
		}
		if contains(r.geometry, p) {
			return r.name, true
		}
	}
	return "", false
}

func contains(g geom.T, p geom.Coord) bool {
	switch g := g.(type) {
	case *geom.Polygon:
		return polygonContains(g, p)
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			if polygonContains(g.Polygon(i), p) {
				return true
			}
		}
	}
	return false
}

func polygonContains(poly *geom.Polygon, p geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
