package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "edudash/internal/errors"
	tracing "edudash/internal/middleware"
	"edudash/internal/rangefilter"
	"edudash/internal/services"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypePNG  = "image/png"
	contentTypeGeo  = "application/geo+json"
)

// DataHandler handles data-related HTTP requests with RFC 7807 compliance
type DataHandler struct {
	service      DataServiceInterface
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, validate *validator.Validate, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &DataHandler{
		service:      service,
		validate:     validate,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes with proper Chi patterns
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/datasets", func(r chi.Router) {
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/", h.ListDatasets)
		r.With(render.SetContentType(render.ContentTypeJSON)).Post("/reload", h.Reload)
		r.Route("/{name}", func(r chi.Router) {
			r.Use(h.NameCtx)
			r.With(render.SetContentType(render.ContentTypeJSON)).Get("/", h.GetDataset)
			r.With(render.SetContentType(render.ContentTypeJSON)).Get("/bounds", h.GetBounds)
			r.With(tracing.TraceMiddleware("dataset.export.xlsx")).Get("/export.xlsx", h.ExportWorkbook)
			r.With(tracing.TraceMiddleware("dataset.export.csv")).Get("/export.csv", h.ExportCSV)
		})
	})

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/regions", h.GetRegions)

	r.Route("/views", func(r chi.Router) {
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/", h.ListViews)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/{view}/trend", h.GetTrend)
		r.With(tracing.TraceMiddleware("view.scatter.render")).Get("/{view}/scatter.png", h.GetScatterPNG)
	})

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/map", h.GetMap)
	r.Get("/map/geojson", h.GetGeoJSON)

	return r
}

// NameCtx middleware validates the dataset name parameter
func (h *DataHandler) NameCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "Dataset name is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListDatasets handles GET /api/datasets
func (h *DataHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	infos := h.service.Datasets()
	success(w, r, infos, len(infos))
}

// GetDataset handles GET /api/datasets/{name}, optionally filtered
func (h *DataHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	filters, ok := h.filters(w, r)
	if !ok {
		return
	}

	ds, records, err := h.service.Records(r.Context(), name, filters)
	if err != nil {
		h.fail(w, r, "failed to get dataset", err, slog.String("dataset", name))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"data":    records,
		"count":   len(records),
		"columns": ds.Columns,
		"total":   ds.Len(),
	})
}

// GetBounds handles GET /api/datasets/{name}/bounds?column=...
func (h *DataHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q := boundsQuery{Column: r.URL.Query().Get("column")}
	if err := h.validate.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	b, err := h.service.Bounds(r.Context(), name, q.Column)
	if err != nil {
		h.fail(w, r, "failed to derive bounds", err, slog.String("dataset", name), slog.String("column", q.Column))
		return
	}
	success(w, r, b, 1)
}

// ExportWorkbook handles GET /api/datasets/{name}/export.xlsx
func (h *DataHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	filters, ok := h.filters(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportWorkbook(r.Context(), &buf, name, filters); err != nil {
		h.fail(w, r, "workbook export failed", exportError("xlsx", err), slog.String("dataset", name))
		return
	}
	attachment(w, contentTypeXLSX, name+".xlsx", buf.Bytes())
}

// ExportCSV handles GET /api/datasets/{name}/export.csv
func (h *DataHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	filters, ok := h.filters(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf, name, filters); err != nil {
		h.fail(w, r, "csv export failed", exportError("csv", err), slog.String("dataset", name))
		return
	}
	attachment(w, contentTypeCSV, name+".csv", buf.Bytes())
}

// Reload handles POST /api/datasets/reload
func (h *DataHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "reloading datasets",
		slog.String("request_id", tracing.GetRequestID(r.Context())))

	infos, err := h.service.Reload(r.Context())
	if err != nil {
		h.fail(w, r, "dataset reload failed", err)
		return
	}
	success(w, r, infos, len(infos))
}

// GetRegions handles GET /api/regions
func (h *DataHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.Regions(r.Context())
	if err != nil {
		h.fail(w, r, "failed to get regions", err)
		return
	}
	success(w, r, regions, len(regions))
}

// ListViews handles GET /api/views
func (h *DataHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	infos := h.service.Views()
	success(w, r, infos, len(infos))
}

// GetTrend handles GET /api/views/{view}/trend
func (h *DataHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	filters, ok := h.filters(w, r)
	if !ok {
		return
	}

	trend, err := h.service.Trend(r.Context(), view, filters)
	if err != nil {
		h.fail(w, r, "failed to compute trend", err, slog.String("view", view))
		return
	}
	success(w, r, trend, len(trend.Points))
}

// GetScatterPNG handles GET /api/views/{view}/scatter.png
func (h *DataHandler) GetScatterPNG(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	filters, ok := h.filters(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.RenderScatter(r.Context(), &buf, view, filters); err != nil {
		h.fail(w, r, "scatter render failed", exportError("png", err), slog.String("view", view))
		return
	}
	w.Header().Set("Content-Type", contentTypePNG)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetMap handles GET /api/map
func (h *DataHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Map(r.Context())
	if err != nil {
		h.fail(w, r, "failed to load map", err)
		return
	}
	success(w, r, summary, len(summary.Regions))
}

// GetGeoJSON handles GET /api/map/geojson
func (h *DataHandler) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	raw, err := h.service.GeoJSON(r.Context())
	if err != nil {
		h.fail(w, r, "failed to load map", err)
		return
	}
	w.Header().Set("Content-Type", contentTypeGeo)
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// filters parses the filter query parameters, answering 400 on failure.
func (h *DataHandler) filters(w http.ResponseWriter, r *http.Request) (rangefilter.Filters, bool) {
	filters, err := parseFilters(r.URL.Query(), h.validate)
	if err == nil {
		return filters, true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.errorHandler.HandleError(w, r, err)
	} else {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("filter", err))
	}
	return nil, false
}

func (h *DataHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("error", err.Error()),
		slog.String("request_id", tracing.GetRequestID(r.Context())))
	h.logger.LogAttrs(r.Context(), slog.LevelWarn, msg, attrs...)
	h.errorHandler.HandleError(w, r, err)
}

// exportError keeps domain errors for the problem mapping and reports encoder
// failures as export errors.
func exportError(format string, err error) error {
	if errors.Is(err, services.ErrExport) {
		return apierrors.ExportError(format, err)
	}
	return err
}

func success(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
		"count":  count,
	})
}

func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
