package errors

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edudash/internal/shared/testutil"
)

func newTestErrorMiddleware(t *testing.T) (*ErrorMiddleware, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	return NewErrorMiddleware(NewErrorHandler(logger, false), logger), logs
}

func TestErrorMiddleware_LogsFailuresOnly(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  slog.Level
		logged bool
	}{
		{"ok", http.StatusOK, slog.LevelInfo, false},
		{"client error", http.StatusNotFound, slog.LevelWarn, true},
		{"server error", http.StatusBadGateway, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, logs := newTestErrorMiddleware(t)

			r := chi.NewRouter()
			r.Use(m.Handler)
			r.Get("/api/datasets/{name}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/q1?filter=%E4%B8%80%E6%9C%AC%E7%8E%87:20:", nil))
			assert.Equal(t, tt.status, rec.Code)

			if !tt.logged {
				assert.False(t, logs.ContainsMessage("api request failed"))
				return
			}
			records := logs.GetRecordsByLevel(tt.level)
			require.Len(t, records, 1)
			got := records[0]
			assert.Equal(t, "api request failed", got.Message)
			assert.Equal(t, "/api/datasets/q1", got.Attrs["path"])
			assert.Equal(t, "/api/datasets/{name}", got.Attrs["route"])
			assert.Equal(t, "q1", got.Attrs["param_name"])
			assert.Equal(t, int64(tt.status), got.Attrs["status"])
			assert.Contains(t, got.Attrs["query"], "filter=")
		})
	}
}

func TestErrorMiddleware_RequestBodyOnFailure(t *testing.T) {
	m, logs := newTestErrorMiddleware(t)

	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(data)
		w.WriteHeader(http.StatusBadRequest)
	}))

	body := `{"level":"error","message":"chart init failed","context":{"view":"q1","token":"abc"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, body, seen, "handler still reads the full body")
	records := logs.GetRecordsByLevel(slog.LevelWarn)
	require.Len(t, records, 1)
	logged, _ := records[0].Attrs["request_body"].(string)
	assert.Contains(t, logged, "[REDACTED]")
	assert.Contains(t, logged, "chart init failed")
	assert.NotContains(t, logged, "abc")
}

func TestErrorMiddleware_RecoversPanics(t *testing.T) {
	m, logs := newTestErrorMiddleware(t)
	h := m.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("chart disposed")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/map", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestRedactBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		redacted bool
	}{
		{"top level", `{"password":"p"}`, true},
		{"mixed case", `{"Authorization":"Bearer x","region":"北京"}`, true},
		{"nested in array", `{"entries":[{"api_key":"k"}]}`, true},
		{"plain json", `{"region":"北京"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := redactBody([]byte(tt.body))
			if tt.redacted {
				assert.Contains(t, out, "[REDACTED]")
			} else {
				assert.NotContains(t, out, "[REDACTED]")
			}
		})
	}
	assert.Equal(t, "region=北京", redactBody([]byte("region=北京")))
}
