package http

import (
	"context"
	"io"

	"edudash/internal/csvtable"
	"edudash/internal/datasets"
	"edudash/internal/rangefilter"
	"edudash/internal/services"
	"edudash/internal/views"
)

// DataServiceInterface defines the interface for data operations
type DataServiceInterface interface {
	Datasets() []datasets.Info
	Records(ctx context.Context, name string, filters rangefilter.Filters) (*csvtable.Dataset, []csvtable.Record, error)
	Bounds(ctx context.Context, name, column string) (services.ColumnBounds, error)
	Regions(ctx context.Context) ([]string, error)
	Views() []views.Info
	Trend(ctx context.Context, view string, filters rangefilter.Filters) (*services.TrendResult, error)
	Map(ctx context.Context) (*services.MapSummary, error)
	GeoJSON(ctx context.Context) ([]byte, error)
	Reload(ctx context.Context) ([]datasets.Info, error)

	ExportWorkbook(ctx context.Context, w io.Writer, name string, filters rangefilter.Filters) error
	ExportCSV(ctx context.Context, w io.Writer, name string, filters rangefilter.Filters) error
	RenderScatter(ctx context.Context, w io.Writer, view string, filters rangefilter.Filters) error
}

var _ DataServiceInterface = (*services.DataService)(nil)
