package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found")
	assert.Equal(t, "Dataset not found", err.Error())
	assert.Nil(t, err.Details)

	withDetails := err.WithMessage("bad min").WithDetails(map[string]string{"param": "min"})
	assert.Equal(t, map[string]string{"param": "min"}, withDetails.Details)
	assert.Equal(t, "bad min", withDetails.Message)
	assert.Equal(t, "Dataset not found", err.Message, "copies leave the original untouched")
	assert.Nil(t, err.Details)
	assert.Equal(t, "Dataset not found", err.WithMessage("").Message)

	var target *APIError
	wrapped := errors.Join(errors.New("context"), withDetails)
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "DATASET_NOT_FOUND", target.ErrorCode)
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err    *APIError
		status int
		code   string
	}{
		{ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
		{ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
		{ErrInvalidParameter, http.StatusBadRequest, "INVALID_PARAMETER"},
		{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{ErrDatasetNotFound, http.StatusNotFound, "DATASET_NOT_FOUND"},
		{ErrViewNotFound, http.StatusNotFound, "VIEW_NOT_FOUND"},
		{ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{ErrExportFailed, http.StatusInternalServerError, "EXPORT_FAILED"},
		{ErrDatasetLoad, http.StatusBadGateway, "DATASET_LOAD_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.code, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	export := ExportError("xlsx", errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, export.StatusCode)
	assert.Equal(t, "EXPORT_FAILED", export.ErrorCode)
	assert.Equal(t, "Failed to export xlsx", export.Message)
	assert.Equal(t, "disk full", export.Details)

	v := ErrValidation("min", "must be numeric")
	assert.Equal(t, ValidationError{Field: "min", Message: "must be numeric"}, v.Details)

	assert.Equal(t, "bad json", InvalidRequestWithError(errors.New("bad json")).Details)

	param := InvalidParameter("filter", errors.New(`bad bound "x"`))
	assert.Equal(t, "INVALID_PARAMETER", param.ErrorCode)
	assert.Equal(t, "Invalid filter parameter", param.Message)
	assert.Equal(t, `bad bound "x"`, param.Details)

	limited := RateLimited(2)
	assert.Equal(t, http.StatusTooManyRequests, limited.StatusCode)
	assert.Contains(t, limited.Message, "2 seconds")
	assert.Equal(t, map[string]int{"retry_after": 2}, limited.Details)

	assert.Equal(t, "Export failed", ErrExportFailed.Message)
	assert.Nil(t, ErrRateLimitExceeded.Details)
}

func TestProblemDetailsJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusBadGateway, TypeDatasetLoad, "Dataset Load Failed", "HTTP 404", "/api/datasets/q1").
		WithExtension("dataset", "q1").
		WithExtension("status", "overridden")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeDatasetLoad, body["type"])
	assert.Equal(t, float64(http.StatusBadGateway), body["status"], "standard members win over extensions")
	assert.Equal(t, "q1", body["dataset"])
	assert.Equal(t, "/api/datasets/q1", body["instance"])

	bare, err := json.Marshal(&ProblemDetails{Type: TypeInternal, Title: "x", Status: 500})
	require.NoError(t, err)
	assert.NotContains(t, string(bare), "detail")
	assert.NotContains(t, string(bare), "instance")
}
