package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-playground/validator/v10"

	"edudash/internal/csvtable"
	"edudash/internal/datasets"
	"edudash/internal/infrastructure"
	"edudash/internal/rangefilter"
	"edudash/internal/router"
	"edudash/internal/services"
)

// Common error types following RFC 7807
const (
	TypeValidation = "/errors/validation"
	TypeNotFound   = "/errors/not-found"
	TypeRateLimit  = "/errors/rate-limit"
	TypeInternal   = "/errors/internal"
	TypeTimeout    = "/errors/timeout"
	TypeConflict   = "/errors/conflict"
)

// Domain-specific error types
const (
	TypeDatasetNotFound = "/errors/dataset/not-found"
	TypeDatasetLoad     = "/errors/dataset/load-failed"
	TypeViewNotFound    = "/errors/view/not-found"
	TypeExport          = "/errors/export/failed"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := infrastructure.GetTraceID(r.Context())

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)

	// Add stack trace in development
	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}

	h.write(w, r, problem)
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	if err := problem.Write(w); err != nil {
		h.logger.DebugContext(r.Context(), "problem response not written", slog.String("error", err.Error()))
	}
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	// Check for our custom API errors
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]ValidationError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			})
		}
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeValidation,
			"Validation Failed",
			"One or more query parameters are invalid",
			r.URL.Path,
		).WithExtension("errors", fields)
	}

	var loadErr *csvtable.LoadError
	if errors.As(err, &loadErr) {
		return h.apiErrorToProblem(ErrDatasetLoad.WithMessage(loadErr.Message), r).
			WithExtension("dataset", loadErr.Dataset)
	}

	switch {
	case errors.Is(err, datasets.ErrUnknownDataset):
		return h.apiErrorToProblem(ErrDatasetNotFound.WithMessage(err.Error()), r)

	case errors.Is(err, rangefilter.ErrUnknownColumn):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeValidation,
			"Unknown Filter Column",
			err.Error(),
			r.URL.Path,
		)

	case errors.Is(err, services.ErrNotScatterView):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeValidation,
			"Not A Scatter View",
			err.Error(),
			r.URL.Path,
		)

	case errors.Is(err, services.ErrReloadInProgress):
		return NewProblemDetails(
			http.StatusConflict,
			TypeConflict,
			"Reload In Progress",
			err.Error(),
			r.URL.Path,
		)

	case errors.Is(err, router.ErrUnknownView):
		return h.apiErrorToProblem(ErrViewNotFound.WithMessage(err.Error()), r)

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request",
			r.URL.Path,
		)
	}
}

// problemKind is the problem type and title for an APIError code. Codes without
// a title use the HTTP status text.
type problemKind struct {
	Type  string
	Title string
}

var problemKinds = map[string]problemKind{
	"INVALID_REQUEST":     {Type: TypeValidation},
	"VALIDATION_FAILED":   {Type: TypeValidation},
	"INVALID_PARAMETER":   {Type: TypeValidation},
	"NOT_FOUND":           {Type: TypeNotFound},
	"DATASET_NOT_FOUND":   {Type: TypeDatasetNotFound, Title: "Dataset Not Found"},
	"VIEW_NOT_FOUND":      {Type: TypeViewNotFound, Title: "View Not Found"},
	"DATASET_LOAD_FAILED": {Type: TypeDatasetLoad, Title: "Dataset Load Failed"},
	"EXPORT_FAILED":       {Type: TypeExport, Title: "Export Failed"},
	"RATE_LIMIT_EXCEEDED": {Type: TypeRateLimit},
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	kind, ok := problemKinds[apiErr.ErrorCode]
	if !ok {
		kind.Type = TypeInternal
	}
	if kind.Title == "" {
		kind.Title = http.StatusText(apiErr.StatusCode)
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		kind.Type,
		kind.Title,
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	// Add details if present
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := infrastructure.GetTraceID(r.Context())

	// Log the panic
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	// Create problem details
	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	// Add panic details in development
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	h.write(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := h.apiErrorToProblem(ErrNotFound, r).
		WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	h.write(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	h.write(w, r, problem)
}

// getStackTrace returns the current stack trace
func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
