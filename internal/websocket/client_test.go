package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edudash/internal/config"
	"edudash/pkg/contracts/events"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type recordingHandler struct {
	calls    []string
	messages []events.InboundMessage
}

func (h *recordingHandler) Open(context.Context) { h.calls = append(h.calls, "open") }

func (h *recordingHandler) HandleMessage(_ context.Context, msg events.InboundMessage) {
	h.calls = append(h.calls, "message")
	h.messages = append(h.messages, msg)
}

func (h *recordingHandler) Close() { h.calls = append(h.calls, "close") }

func drain(c *Client) []events.WebSocketMessage {
	var out []events.WebSocketMessage
	for payload := range c.send {
		var msg events.WebSocketMessage
		if err := json.Unmarshal(payload, &msg); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

func TestReadPumpDispatchesInOrder(t *testing.T) {
	conn := newMockConnection(
		`{"type":"view:show","data":{"view":"q2"}}`,
		`{"type":"heartbeat"}`,
		`{"type":"region:select","data":{"region":"北京"}}`,
	)
	c := NewClient(nil, conn, config.WebSocketConfig{}, "trace-1", quietLogger())
	h := &recordingHandler{}
	c.SetHandler(h)

	c.ReadPump()

	assert.Equal(t, []string{"open", "message", "message", "close"}, h.calls)
	require.Len(t, h.messages, 2)
	assert.Equal(t, events.MessageTypeViewShow, h.messages[0].Type)
	assert.JSONEq(t, `{"view":"q2"}`, string(h.messages[0].Data))
	assert.Equal(t, events.MessageTypeRegionSelect, h.messages[1].Type)

	assert.Equal(t, config.Default().WebSocket.MaxMessageSize, conn.limit)
	assert.NotNil(t, conn.pong)
	assert.True(t, conn.closed)
	assert.ErrorIs(t, c.Send(events.MessageTypeViewError, nil), ErrClientClosed)
}

func TestReadPumpRejectsMalformedMessages(t *testing.T) {
	conn := newMockConnection(`not json`, `{"data":{}}`)
	c := NewClient(nil, conn, config.WebSocketConfig{}, "", quietLogger())
	h := &recordingHandler{}
	c.SetHandler(h)

	c.ReadPump()

	assert.Empty(t, h.messages)
	replies := drain(c)
	require.Len(t, replies, 2)
	assert.Equal(t, events.MessageTypeError, replies[0].Type)
}

func TestSendBufferFull(t *testing.T) {
	c := NewClient(nil, newMockConnection(), config.WebSocketConfig{SendBuffer: 1}, "", quietLogger())

	require.NoError(t, c.Send(events.MessageTypeChartCommand, events.ChartCommand{Chart: "q1.scatter", Command: events.CommandResize}))
	assert.ErrorIs(t, c.Send(events.MessageTypeChartCommand, nil), ErrSendBufferFull)
}

func TestSendCarriesTraceID(t *testing.T) {
	c := NewClient(nil, newMockConnection(), config.WebSocketConfig{}, "trace-42", quietLogger())
	require.NoError(t, c.Send(events.MessageTypeViewActivated, events.ViewActivated{View: "q1", First: true}))
	c.closeSend()

	msgs := drain(c)
	require.Len(t, msgs, 1)
	assert.Equal(t, "trace-42", msgs[0].TraceID)
	assert.Equal(t, events.MessageTypeViewActivated, msgs[0].Type)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestWritePumpFlushesThenCloses(t *testing.T) {
	conn := newMockConnection()
	c := NewClient(nil, conn, config.WebSocketConfig{}, "", quietLogger())
	require.NoError(t, c.Send(events.MessageTypeViewActivated, events.ViewActivated{View: "q1"}))
	require.NoError(t, c.Send(events.MessageTypeViewActivated, events.ViewActivated{View: "q2"}))
	c.closeSend()
	c.closeSend()

	c.WritePump()

	written := conn.Written()
	require.Len(t, written, 3)
	assert.Equal(t, websocket.TextMessage, written[0].Type)
	assert.Contains(t, string(written[1].Data), `"view":"q2"`)
	assert.Equal(t, websocket.CloseMessage, written[2].Type)
}

func TestWithDefaults(t *testing.T) {
	cfg := withDefaults(config.WebSocketConfig{PongWait: 10 * time.Second, PingPeriod: 20 * time.Second})
	assert.Equal(t, cfg.PongWait*9/10, cfg.PingPeriod)
	assert.Positive(t, cfg.SendBuffer)
	assert.Positive(t, cfg.WriteWait)
}
