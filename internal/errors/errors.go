package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// Predefined errors. Handlers mostly return domain errors and ErrorToProblem maps
// them onto these; the constructors below derive request-specific copies.
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrInvalidParameter = New(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter value")

	// 404 Not Found
	ErrNotFound        = New(http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
	ErrDatasetNotFound = New(http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found")
	ErrViewNotFound    = New(http.StatusNotFound, "VIEW_NOT_FOUND", "View not found")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrExportFailed = New(http.StatusInternalServerError, "EXPORT_FAILED", "Export failed")

	// 502 Bad Gateway
	ErrDatasetLoad = New(http.StatusBadGateway, "DATASET_LOAD_FAILED", "Dataset could not be loaded")
)

// WithMessage returns a copy of e carrying msg. An empty msg keeps the original.
func (e *APIError) WithMessage(msg string) *APIError {
	c := *e
	if msg != "" {
		c.Message = msg
	}
	return &c
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return ErrInvalidRequest.WithDetails(err.Error())
}

// InvalidParameter reports a query parameter that could not be parsed.
func InvalidParameter(param string, err error) *APIError {
	return ErrInvalidParameter.
		WithMessage(fmt.Sprintf("Invalid %s parameter", param)).
		WithDetails(err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return ErrValidationFailed.WithDetails(ValidationError{
		Field:   field,
		Message: message,
	})
}

// ExportError creates an export failure error
func ExportError(format string, err error) *APIError {
	return ErrExportFailed.
		WithMessage(fmt.Sprintf("Failed to export %s", format)).
		WithDetails(err.Error())
}

// RateLimited reports a request refused by the limiter.
func RateLimited(retryAfter int) *APIError {
	return ErrRateLimitExceeded.
		WithMessage(fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds", retryAfter)).
		WithDetails(map[string]int{"retry_after": retryAfter})
}
