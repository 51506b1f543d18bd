package websocket

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edudash/internal/config"
	"edudash/pkg/contracts/events"
)

func newTestHub(t *testing.T) (*Hub, *Metrics) {
	t.Helper()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	hub := NewHub(quietLogger(), metrics)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub, metrics
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub, metrics := newTestHub(t)
	a := NewClient(hub, newMockConnection(), config.WebSocketConfig{}, "", quietLogger())
	b := NewClient(hub, newMockConnection(), config.WebSocketConfig{}, "", quietLogger())

	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return promtestutil.ToFloat64(metrics.total) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, hub.ClientCount())
	assert.Equal(t, 2.0, promtestutil.ToFloat64(metrics.connections))

	hub.Unregister(a)
	require.Eventually(t, func() bool {
		return errors.Is(a.Send(events.MessageTypeViewError, nil), ErrClientClosed)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())
	assert.NoError(t, b.Send(events.MessageTypeViewError, nil))

	// A second unregister is ignored.
	hub.Unregister(a)
	assert.Equal(t, int64(2), hub.GetHubMetrics()["total_connections"])
}

func TestHubBroadcast(t *testing.T) {
	hub, _ := newTestHub(t)
	clients := []*Client{
		NewClient(hub, newMockConnection(), config.WebSocketConfig{}, "", quietLogger()),
		NewClient(hub, newMockConnection(), config.WebSocketConfig{}, "", quietLogger()),
	}
	for _, c := range clients {
		hub.Register(c)
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(events.MessageTypeDatasetsReloaded, events.DatasetsReloadedEvent{Datasets: []string{"q1"}})

	for _, c := range clients {
		select {
		case payload := <-c.send:
			var msg struct {
				Type events.MessageType           `json:"type"`
				Data events.DatasetsReloadedEvent `json:"data"`
			}
			require.NoError(t, json.Unmarshal(payload, &msg))
			assert.Equal(t, events.MessageTypeDatasetsReloaded, msg.Type)
			assert.Equal(t, []string{"q1"}, msg.Data.Datasets)
		case <-time.After(time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestHubBroadcastSkipsFullClients(t *testing.T) {
	hub, metrics := newTestHub(t)
	full := NewClient(hub, newMockConnection(), config.WebSocketConfig{SendBuffer: 1}, "", quietLogger())
	require.NoError(t, full.Send(events.MessageTypeViewError, nil))
	hub.Register(full)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(events.MessageTypeDatasetsReloaded, nil)

	require.Eventually(t, func() bool { return promtestutil.ToFloat64(metrics.dropped) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub(quietLogger(), nil)
	hub.Start()
	c := NewClient(hub, newMockConnection(), config.WebSocketConfig{}, "", quietLogger())
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
	assert.ErrorIs(t, c.Send(events.MessageTypeViewError, nil), ErrClientClosed)
	// Calls after Stop return instead of blocking.
	hub.Register(c)
	hub.Unregister(c)
	hub.Broadcast(events.MessageTypeDatasetsReloaded, nil)
}

func TestNewMetricsRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)

	var m *Metrics
	m.connected(1)
	m.drop()
}
