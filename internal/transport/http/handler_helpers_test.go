package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"edudash/internal/datasets"
	apierrors "edudash/internal/errors"
	"edudash/internal/services"
	"edudash/internal/shared/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestCatalog(files map[string]string) *datasets.Catalog {
	logger := quietLogger()
	loader := datasets.NewLoader(datasets.MapSource(files), nil, nil, logger)
	return datasets.NewCatalog(loader, datasets.DefaultGeoJSONFile, logger)
}

func newTestDataHandler(t *testing.T) *DataHandler {
	t.Helper()
	svc := services.NewDataService(newTestCatalog(testutil.DatasetFiles()), nil, quietLogger())
	return NewDataHandler(svc, nil, quietLogger(), apierrors.NewErrorHandler(quietLogger(), false))
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Count  int             `json:"count"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Equal(t, "success", env.Status)
	return env
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}
