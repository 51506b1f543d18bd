package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "edudash/internal/errors"
	"edudash/internal/services"
)

type readyProbe bool

func (p readyProbe) Ready() bool { return bool(p) }

func TestHealthHandlerReadiness(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		status int
	}{
		{"ready", true, http.StatusOK},
		{"not ready", false, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := services.NewHealthService("1.0.0", "", readyProbe(tt.ready), fakeHub{}, quietLogger())
			h := NewHealthHandler(svc, quietLogger())

			rec := httptest.NewRecorder()
			h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHealthHandlerVersion(t *testing.T) {
	h := NewHealthHandler(services.NewHealthService("2.0.0", "", nil, nil, quietLogger()), quietLogger())

	rec := httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2.0.0", body["version"])

	rec = httptest.NewRecorder()
	h.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/live", nil))
	assert.Contains(t, rec.Body.String(), `"alive"`)
}

type fakeHub struct{}

func (fakeHub) ClientCount() int { return 3 }

func (fakeHub) GetHubMetrics() map[string]interface{} {
	return map[string]interface{}{"connected_clients": 3}
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "edudash_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	routes := NewMetricsHandler(reg, fakeHub{}).Routes()

	rec := serve(routes, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edudash_test_total 1")

	rec = serve(routes, http.MethodGet, "/websocket")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected_clients":3`)
}

func TestClientLogHandler(t *testing.T) {
	h := NewClientLogHandler(nil, quietLogger(), apierrors.NewErrorHandler(quietLogger(), false))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"level":"error","message":"chart failed","view":"q1"}`, http.StatusAccepted},
		{"default level", `{"message":"hello"}`, http.StatusAccepted},
		{"missing message", `{"level":"info"}`, http.StatusBadRequest},
		{"bad level", `{"level":"fatal","message":"x"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Handle(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestStaticHandlerFallback(t *testing.T) {
	h := StaticHandler(t.TempDir())

	rec := serve(h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "教育数据仪表盘")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestStaticHandlerServesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>page</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	h := StaticHandler(dir)

	rec := serve(h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "page")

	rec = serve(h, http.MethodGet, "/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = serve(h, http.MethodGet, "/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
