package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edudash/internal/csvtable"
	"edudash/internal/datasets"
	"edudash/internal/infrastructure"
	"edudash/internal/router"
	"edudash/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	type trendQuery struct {
		View string `validate:"required,oneof=q1 q2 q3"`
	}
	validationErr := validator.New().Struct(trendQuery{View: "radar"})
	require.Error(t, validationErr)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout, "Request Timeout"},
		{"canceled wrapped", fmt.Errorf("load q1: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout, "Request Timeout"},
		{"api error", ErrInvalidParameter, http.StatusBadRequest, TypeValidation, "Bad Request"},
		{"api validation", ErrValidationFailed, http.StatusBadRequest, TypeValidation, "Bad Request"},
		{"api dataset", ErrDatasetNotFound, http.StatusNotFound, TypeDatasetNotFound, "Dataset Not Found"},
		{"api rate limit", RateLimited(1), http.StatusTooManyRequests, TypeRateLimit, "Too Many Requests"},
		{"api export", ErrExportFailed, http.StatusInternalServerError, TypeExport, "Export Failed"},
		{"unknown code", New(http.StatusTeapot, "TEAPOT", "short and stout"), http.StatusTeapot, TypeInternal, "I'm a teapot"},
		{"validator", fmt.Errorf("decode query: %w", validationErr), http.StatusBadRequest, TypeValidation, "Validation Failed"},
		{
			"load error",
			fmt.Errorf("catalog: %w", &csvtable.LoadError{Dataset: "q1", Op: "fetch", Message: "HTTP 404"}),
			http.StatusBadGateway, TypeDatasetLoad, "Dataset Load Failed",
		},
		{"unknown dataset", fmt.Errorf("%w: q9", datasets.ErrUnknownDataset), http.StatusNotFound, TypeDatasetNotFound, "Dataset Not Found"},
		{"unknown view", fmt.Errorf("%w: radar", router.ErrUnknownView), http.StatusNotFound, TypeViewNotFound, "View Not Found"},
		{"anything else", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal, "Internal Server Error"},
	}

	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodGet, "/api/views/q1/trend", nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.wantTitle, p.Title)
			assert.Equal(t, "/api/views/q1/trend", p.Instance)
		})
	}
}

func TestErrorHandler_ProblemExtensions(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodGet, "/api/datasets/q1", nil)

	p := h.ErrorToProblem(&csvtable.LoadError{Dataset: "q1", Op: "fetch", Message: "HTTP 500"}, req)
	assert.Equal(t, "HTTP 500", p.Detail)
	assert.Equal(t, "q1", p.Extensions["dataset"])
	assert.Equal(t, "DATASET_LOAD_FAILED", p.Extensions["error_code"])

	p = h.ErrorToProblem(&csvtable.LoadError{Dataset: "q2", Op: "parse"}, req)
	assert.Equal(t, ErrDatasetLoad.Message, p.Detail)

	p = h.ErrorToProblem(fmt.Errorf("%w: radar", router.ErrUnknownView), req)
	assert.Equal(t, "VIEW_NOT_FOUND", p.Extensions["error_code"])
	assert.Contains(t, p.Detail, "radar")

	type q struct {
		Min float64 `validate:"gte=0"`
	}
	p = h.ErrorToProblem(validator.New().Struct(q{Min: -1}), req)
	fields, ok := p.Extensions["errors"].([]ValidationError)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "Min", fields[0].Field)
	assert.Contains(t, fields[0].Message, "gte")

	p = h.ErrorToProblem(ExportError("xlsx", fmt.Errorf("disk full")), req)
	assert.Equal(t, TypeExport, p.Type)
	assert.Equal(t, "disk full", p.Extensions["details"])
}

func TestErrorHandler_HandleError(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/datasets/q9", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "req-1"))

	h.HandleError(rec, req, fmt.Errorf("%w: q9", datasets.ErrUnknownDataset))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeDatasetNotFound, body["type"])
	assert.Equal(t, "DATASET_NOT_FOUND", body["error_code"])
	assert.Equal(t, "req-1", body["trace_id"])
	assert.NotEmpty(t, body["stack"])
	assert.True(t, logs.ContainsMessage("request failed"))
	assert.True(t, logs.ContainsAttr("request_id", "req-1"))

	rec = httptest.NewRecorder()
	h.HandleError(rec, req, nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	for _, includeStack := range []bool{true, false} {
		t.Run(fmt.Sprintf("stack=%v", includeStack), func(t *testing.T) {
			h := NewErrorHandler(logger, includeStack)
			rec := httptest.NewRecorder()
			h.HandlePanic(rec, httptest.NewRequest(http.MethodPost, "/api/datasets/reload", nil), "nil map")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
			body := decodeProblem(t, rec)
			assert.Equal(t, TypeInternal, body["type"])
			if includeStack {
				assert.Equal(t, "nil map", body["panic"])
			} else {
				assert.NotContains(t, body, "panic")
			}
		})
	}
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	body := decodeProblem(t, rec)
	assert.Equal(t, "/nope", body["instance"])
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "NOT_FOUND", body["error_code"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/regions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestErrorHandler_ProblemContentTypeOnJSONRoutes(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/api/views/{view}/trend", func(w http.ResponseWriter, r *http.Request) {
		h.HandleError(w, r, fmt.Errorf("%w: %s", router.ErrUnknownView, chi.URLParam(r, "view")))
	})
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/api/datasets/{name}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleError(w, r, &csvtable.LoadError{Dataset: chi.URLParam(r, "name"), Op: "fetch", Message: "HTTP 503"})
	})

	tests := []struct {
		target string
		status int
		level  slog.Level
	}{
		{"/api/views/radar/trend", http.StatusNotFound, slog.LevelWarn},
		{"/api/datasets/q1", http.StatusBadGateway, slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, float64(tt.status), decodeProblem(t, rec)["status"])
		})
	}
	assert.Len(t, logs.GetRecordsByLevel(slog.LevelWarn), 1)
	assert.Len(t, logs.GetRecordsByLevel(slog.LevelError), 1)
}

func TestErrorHandlerConcurrency(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.HandleError(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/datasets/d%d", i), nil),
				fmt.Errorf("%w: d%d", datasets.ErrUnknownDataset, i))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, logs.Count())
}
