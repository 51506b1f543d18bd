package errors

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"edudash/internal/infrastructure"
)

const (
	// maxLoggedBody bounds how much of a request body is buffered for failure logs.
	maxLoggedBody = 64 << 10
	// bodyExcerpt is how much of it ends up in the log line.
	bodyExcerpt = 500
)

// redactedKeys are JSON keys whose values never reach the logs, matched case-insensitively
// at any depth. Client log payloads forward arbitrary browser context.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"api_key":       {},
	"apikey":        {},
	"authorization": {},
	"cookie":        {},
}

// ErrorMiddleware recovers panics in API handlers and logs every failed API
// request with its route, URL parameters and a redacted body excerpt. Successful
// requests are left to the access log.
type ErrorMiddleware struct {
	handler *ErrorHandler
	logger  *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(handler *ErrorHandler, logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		handler: handler,
		logger:  logger.With(slog.String("component", "error_middleware")),
	}
}

// Handler returns the middleware handler function
func (m *ErrorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		var body []byte
		if r.Body != nil && r.ContentLength > 0 && r.ContentLength <= maxLoggedBody {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				m.handler.HandlePanic(ww, r, rec)
			}
		}()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status < http.StatusBadRequest {
			return
		}
		m.logFailure(r, status, time.Since(start), body)
	})
}

func (m *ErrorMiddleware) logFailure(r *http.Request, status int, elapsed time.Duration, body []byte) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
		slog.String("request_id", infrastructure.GetTraceID(r.Context())),
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			attrs = append(attrs, slog.String("route", pattern))
		}
		for i, key := range rctx.URLParams.Keys {
			if key == "*" || i >= len(rctx.URLParams.Values) {
				continue
			}
			attrs = append(attrs, slog.String("param_"+key, rctx.URLParams.Values[i]))
		}
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String("query", r.URL.RawQuery))
	}
	if len(body) > 0 {
		excerpt := redactBody(body)
		if len(excerpt) > bodyExcerpt {
			excerpt = excerpt[:bodyExcerpt] + "..."
		}
		attrs = append(attrs, slog.String("request_body", excerpt))
	}

	m.logger.LogAttrs(r.Context(), level, "api request failed", attrs...)
}

// redactBody masks sensitive values in a JSON body. Non-JSON bodies pass through.
func redactBody(body []byte) string {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return string(body)
	}
	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return string(body)
	}
	return string(out)
}

func redactValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, inner := range t {
			if _, ok := redactedKeys[strings.ToLower(k)]; ok {
				t[k] = "[REDACTED]"
				continue
			}
			t[k] = redactValue(inner)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = redactValue(t[i])
		}
		return t
	default:
		return v
	}
}
