package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConnectionStats reports websocket hub counters.
type ConnectionStats interface {
	GetHubMetrics() map[string]interface{}
}

// MetricsHandler serves Prometheus metrics and a JSON hub summary
type MetricsHandler struct {
	gatherer prometheus.Gatherer
	hub      ConnectionStats
}

// NewMetricsHandler creates a new metrics handler. A nil gatherer uses the default registry.
func NewMetricsHandler(gatherer prometheus.Gatherer, hub ConnectionStats) *MetricsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &MetricsHandler{gatherer: gatherer, hub: hub}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Handle("/", h.Prometheus())
	r.Get("/websocket", h.GetWebSocketStats)
	return r
}

// Prometheus returns the exposition handler.
func (h *MetricsHandler) Prometheus() http.Handler {
	return promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
}

// GetWebSocketStats returns the hub counters as JSON
func (h *MetricsHandler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{}
	if h.hub != nil {
		stats = h.hub.GetHubMetrics()
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
		"count":  len(stats),
	})
}
