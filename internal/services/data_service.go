package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"edudash/internal/csvtable"
	"edudash/internal/datasets"
	"edudash/internal/exporter"
	"edudash/internal/geomap"
	"edudash/internal/infrastructure"
	"edudash/internal/rangefilter"
	"edudash/internal/router"
	"edudash/internal/trendline"
	"edudash/internal/views"
	"edudash/pkg/contracts/events"
)

// Broadcaster pushes a message to every connected page.
type Broadcaster interface {
	Broadcast(msgType events.MessageType, data interface{})
}

// ColumnBounds is the derived slider range of one numeric column.
type ColumnBounds struct {
	Dataset     string  `json:"dataset"`
	Column      string  `json:"column"`
	PercentLike bool    `json:"percent_like"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Values      int     `json:"values"`
}

// RegionPoint is a scatter point labelled with its region.
type RegionPoint struct {
	Region string  `json:"region"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// TrendResult is a scatter view evaluated under a set of filters.
type TrendResult struct {
	View    string                     `json:"view"`
	Title   string                     `json:"title"`
	XColumn string                     `json:"x_column"`
	YColumn string                     `json:"y_column"`
	XLabel  string                     `json:"x_label"`
	YLabel  string                     `json:"y_label"`
	Points  []RegionPoint              `json:"points"`
	Line    trendline.Line             `json:"line"`
	Filters []rangefilter.ControlState `json:"filters"`
}

// MapRegion is one GeoJSON feature joined with the region dataset.
type MapRegion struct {
	Name    string         `json:"name"`
	Bounds  geomap.Bounds  `json:"bounds"`
	Center  [2]float64     `json:"center"`
	HasData bool           `json:"has_data"`
	Values  map[string]any `json:"values,omitempty"`
}

// MapSummary describes the loaded map.
type MapSummary struct {
	Features int         `json:"features"`
	Regions  []MapRegion `json:"regions"`
	// Unmatched lists dataset regions with no map feature.
	Unmatched []string `json:"unmatched,omitempty"`
}

// DataService exposes the dataset catalog to HTTP handlers and the CLI.
type DataService struct {
	catalog   *datasets.Catalog
	hub       Broadcaster
	logger    *slog.Logger
	reloading atomic.Bool
}

// NewDataService creates a data service over catalog. hub may be nil.
func NewDataService(catalog *datasets.Catalog, hub Broadcaster, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		catalog: catalog,
		hub:     hub,
		logger:  logger.With(slog.String("service", "data")),
	}
}

// Datasets lists every known dataset and whether it is cached.
func (s *DataService) Datasets() []datasets.Info {
	return s.catalog.Info()
}

// Ready reports whether every dataset and the map are loaded.
func (s *DataService) Ready() bool {
	return s.catalog.Ready()
}

// Dataset returns the parsed dataset name.
func (s *DataService) Dataset(ctx context.Context, name string) (*csvtable.Dataset, error) {
	if _, err := datasets.Lookup(name); err != nil {
		return nil, err
	}
	return s.catalog.Load(ctx, name)
}

// Records returns the records of name accepted by filters. Every filtered column
// must be a column of the dataset.
func (s *DataService) Records(ctx context.Context, name string, filters rangefilter.Filters) (*csvtable.Dataset, []csvtable.Record, error) {
	ds, err := s.Dataset(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	for column := range filters {
		if !hasColumn(ds, column) {
			return nil, nil, fmt.Errorf("%w %q in %s", rangefilter.ErrUnknownColumn, column, name)
		}
	}
	if len(filters) == 0 {
		return ds, ds.Records, nil
	}
	return ds, rangefilter.Apply(ds.Records, rangefilter.BuildPredicate(filters)), nil
}

// Bounds derives the slider range of column in dataset name.
func (s *DataService) Bounds(ctx context.Context, name, column string) (ColumnBounds, error) {
	ds, err := s.Dataset(ctx, name)
	if err != nil {
		return ColumnBounds{}, err
	}
	if !hasColumn(ds, column) {
		return ColumnBounds{}, fmt.Errorf("%w %q in %s", rangefilter.ErrUnknownColumn, column, name)
	}

	spec, _ := datasets.Lookup(name)
	percentLike := spec.Schema.Rules[column] == csvtable.Percent
	defaultMax := 0.0
	if percentLike {
		defaultMax = 100
	}
	r := rangefilter.Bounds(ds.Records, column, percentLike, 0, defaultMax)
	return ColumnBounds{
		Dataset:     name,
		Column:      column,
		PercentLike: percentLike,
		Min:         r.Min,
		Max:         r.Max,
		Values:      len(csvtable.Values(ds.Records, column)),
	}, nil
}

// Regions returns the sorted region names of the authoritative dataset.
func (s *DataService) Regions(ctx context.Context) ([]string, error) {
	ds, err := s.catalog.Load(ctx, datasets.AllData)
	if err != nil {
		return nil, err
	}
	return ds.Regions(), nil
}

// Views lists the dashboard views.
func (s *DataService) Views() []views.Info {
	return views.Catalog()
}

// Trend evaluates scatter view under filters. Filters start from the view's seeded
// limits; only the given columns are narrowed.
func (s *DataService) Trend(ctx context.Context, view string, filters rangefilter.Filters) (*TrendResult, error) {
	spec, err := scatterSpec(view)
	if err != nil {
		return nil, err
	}
	ds, err := s.catalog.Load(ctx, spec.Dataset)
	if err != nil {
		return nil, err
	}

	set := spec.NewFilterSet()
	set.Seed(ds.Records)
	for column, r := range filters {
		if err := set.SetRange(column, r); err != nil {
			return nil, fmt.Errorf("%s: %w", view, err)
		}
	}

	points, names := spec.Points(rangefilter.Apply(ds.Records, set.Predicate()))
	result := &TrendResult{
		View:    view,
		Title:   spec.Title,
		XColumn: spec.X.Column,
		YColumn: spec.Y.Column,
		XLabel:  spec.X.Name,
		YLabel:  spec.Y.Name,
		Points:  make([]RegionPoint, len(points)),
		Line:    trendline.Compute(points),
		Filters: set.States(),
	}
	for i, p := range points {
		result.Points[i] = RegionPoint{Region: names[i], X: p.X, Y: p.Y}
	}
	return result, nil
}

// Map joins the GeoJSON features with the region dataset.
func (s *DataService) Map(ctx context.Context) (*MapSummary, error) {
	m, err := s.catalog.Map(ctx)
	if err != nil {
		return nil, err
	}
	ds, err := s.catalog.Load(ctx, datasets.AllData)
	if err != nil {
		return nil, err
	}

	byMapName := make(map[string]csvtable.Record, ds.Len())
	for _, rec := range ds.Records {
		byMapName[rec.Text(datasets.ColMapName)] = rec
	}

	summary := &MapSummary{Features: m.Len()}
	for _, name := range m.Names() {
		b, _ := m.Bounds(name)
		lon, lat := b.Center()
		region := MapRegion{Name: name, Bounds: b, Center: [2]float64{lon, lat}}
		if rec, ok := byMapName[name]; ok {
			region.HasData = true
			region.Values = make(map[string]any, len(datasets.MapMetrics))
			for _, metric := range datasets.MapMetrics {
				region.Values[metric.Key] = rec.Get(metric.Key).Any()
			}
		}
		summary.Regions = append(summary.Regions, region)
	}
	for _, rec := range ds.Records {
		if !m.Has(rec.Text(datasets.ColMapName)) {
			summary.Unmatched = append(summary.Unmatched, rec.Text(datasets.ColRegion))
		}
	}
	return summary, nil
}

// GeoJSON returns the raw map document.
func (s *DataService) GeoJSON(ctx context.Context) ([]byte, error) {
	m, err := s.catalog.Map(ctx)
	if err != nil {
		return nil, err
	}
	return m.Raw(), nil
}

// Reload drops the cache, loads every dataset again and tells connected pages.
// On failure the previous datasets stay in place and nothing is broadcast.
func (s *DataService) Reload(ctx context.Context) ([]datasets.Info, error) {
	if !s.reloading.CompareAndSwap(false, true) {
		return nil, ErrReloadInProgress
	}
	defer s.reloading.Store(false)

	start := time.Now()
	if err := s.catalog.Reload(ctx); err != nil {
		infrastructure.LoggerFromContext(ctx).ErrorContext(ctx, "dataset reload failed",
			slog.String("service", "data"),
			slog.String("error", err.Error()))
		return nil, err
	}

	infos := s.catalog.Info()
	if s.hub != nil {
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = info.Name
		}
		s.hub.Broadcast(events.MessageTypeDatasetsReloaded, events.DatasetsReloadedEvent{
			Datasets: names,
			At:       time.Now().UTC(),
		})
	}
	s.logger.InfoContext(ctx, "datasets reloaded",
		slog.Int("datasets", len(infos)),
		slog.Duration("duration", time.Since(start)))
	return infos, nil
}

// ExportWorkbook writes the filtered records of name as an .xlsx workbook.
func (s *DataService) ExportWorkbook(ctx context.Context, w io.Writer, name string, filters rangefilter.Filters) error {
	ds, records, err := s.Records(ctx, name, filters)
	if err != nil {
		return err
	}
	if err := exporter.WriteWorkbook(w, ds, records); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExport, name, err)
	}
	s.logger.DebugContext(ctx, "workbook exported",
		slog.String("dataset", name),
		slog.Int("records", len(records)))
	return nil
}

// ExportCSV writes the filtered records of name as CSV with a byte order mark.
func (s *DataService) ExportCSV(ctx context.Context, w io.Writer, name string, filters rangefilter.Filters) error {
	ds, records, err := s.Records(ctx, name, filters)
	if err != nil {
		return err
	}
	if err := exporter.WriteCSV(w, ds, records, exporter.CSVOptions{BOMPrefix: true}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExport, name, err)
	}
	return nil
}

// RenderScatter draws scatter view under filters as a PNG.
func (s *DataService) RenderScatter(ctx context.Context, w io.Writer, view string, filters rangefilter.Filters) error {
	trend, err := s.Trend(ctx, view, filters)
	if err != nil {
		return err
	}
	if err := exporter.RenderScatterPNG(w, trend.Plot()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExport, view, err)
	}
	return nil
}

// Plot converts the result into a drawable scatter plot.
func (t *TrendResult) Plot() exporter.ScatterPlot {
	sp := exporter.ScatterPlot{
		Title:  t.Title,
		XLabel: t.XLabel,
		YLabel: t.YLabel,
		Points: make([]trendline.Point, len(t.Points)),
		Labels: make([]string, len(t.Points)),
		Trend:  t.Line.Endpoints,
	}
	for i, p := range t.Points {
		sp.Points[i] = trendline.Point{X: p.X, Y: p.Y}
		sp.Labels[i] = p.Region
	}
	return sp
}

func scatterSpec(view string) (views.ScatterSpec, error) {
	spec, ok := views.LookupScatter(view)
	if ok {
		return spec, nil
	}
	if _, known := views.LookupInfo(view); known {
		return views.ScatterSpec{}, fmt.Errorf("%w: %s", ErrNotScatterView, view)
	}
	return views.ScatterSpec{}, fmt.Errorf("%w: %s", router.ErrUnknownView, view)
}

func hasColumn(ds *csvtable.Dataset, column string) bool {
	for _, c := range ds.Columns {
		if c == column {
			return true
		}
	}
	return false
}
