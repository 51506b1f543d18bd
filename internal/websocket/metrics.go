package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the hub's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	connections prometheus.Gauge
	total       prometheus.Counter
	messages    *prometheus.CounterVec
	dropped     prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edudash_ws_connections",
			Help: "Currently connected dashboard pages.",
		}),
		total: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edudash_ws_connections_total",
			Help: "Dashboard pages connected since start.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edudash_ws_messages_total",
			Help: "Websocket messages by direction.",
		}, []string{"direction"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edudash_ws_dropped_messages_total",
			Help: "Messages dropped because a client send buffer was full.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.connections, m.total, m.messages, m.dropped} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) connected(active int) {
	if m == nil {
		return
	}
	m.total.Inc()
	m.connections.Set(float64(active))
}

func (m *Metrics) disconnected(active int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(active))
}

func (m *Metrics) message(direction string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(direction).Inc()
}

func (m *Metrics) drop() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
