package datasets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"edudash/internal/csvtable"
	"edudash/internal/infrastructure"
)

// TracerName is the instrumentation scope for dataset spans.
const TracerName = "edudash.datasets"

// Loader fetches and parses datasets from a Source.
type Loader struct {
	source  Source
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewLoader creates a loader. A nil tracer, metrics or logger disables that signal.
func NewLoader(source Source, tracer trace.Tracer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Loader {
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(TracerName)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source:  source,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "dataset_loader")),
	}
}

// Source returns the underlying source.
func (l *Loader) Source() Source { return l.source }

// Load fetches and parses the named dataset. Fetch failures and empty headers are
// returned as *csvtable.LoadError.
func (l *Loader) Load(ctx context.Context, name string) (*csvtable.Dataset, error) {
	spec, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	ctx, span := l.tracer.Start(ctx, "dataset.load."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("dataset.name", name),
			attribute.String("dataset.file", spec.File),
			attribute.String("dataset.source", l.source.Describe()),
		),
	)
	defer span.End()

	start := time.Now()
	ds, err := l.load(ctx, spec)
	duration := time.Since(start)
	infrastructure.RecordDatasetLoad(ctx, l.metrics, name, duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		l.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("dataset", name),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return nil, err
	}

	span.SetAttributes(attribute.Int("dataset.records", ds.Len()))
	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("dataset", name),
		slog.Int("records", ds.Len()),
		slog.Int("columns", len(ds.Columns)),
		slog.Duration("duration", duration))
	return ds, nil
}

func (l *Loader) load(ctx context.Context, spec Spec) (*csvtable.Dataset, error) {
	rc, err := l.source.Open(ctx, spec.File)
	if err != nil {
		return nil, fetchError(spec.Name, spec.File, err)
	}
	defer rc.Close()

	infrastructure.AddSpanEvent(ctx, "fetched")
	return csvtable.ParseReader(ctx, rc, spec.Schema)
}

// LoadRaw returns the bytes of file, for non-tabular files such as the GeoJSON map.
func (l *Loader) LoadRaw(ctx context.Context, file string) ([]byte, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.load_raw",
		trace.WithAttributes(attribute.String("dataset.file", file)))
	defer span.End()

	rc, err := l.source.Open(ctx, file)
	if err != nil {
		err = fetchError(file, file, err)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &csvtable.LoadError{Dataset: file, Op: "read", Message: file + "读取失败", Err: err}
	}
	return data, nil
}

func fetchError(dataset, file string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	reason := err.Error()
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		reason = statusErr.Status
	case errors.Is(err, fs.ErrNotExist):
		reason = "文件不存在"
	}
	return &csvtable.LoadError{
		Dataset: dataset,
		Op:      "fetch",
		Message: fmt.Sprintf("%s加载失败: %s", file, reason),
		Err:     err,
	}
}
