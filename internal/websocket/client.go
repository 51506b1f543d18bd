package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"edudash/internal/config"
	"edudash/internal/infrastructure"
	"edudash/pkg/contracts/events"
)

// Send errors.
var (
	ErrClientClosed   = errors.New("websocket client closed")
	ErrSendBufferFull = errors.New("websocket send buffer full")
)

// MessageTypeHeartbeat is the page's keep-alive; it is never dispatched.
const MessageTypeHeartbeat events.MessageType = "heartbeat"

// Client is a middleman between one page's websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn Connection
	cfg  config.WebSocketConfig

	send   chan []byte
	sendMu sync.Mutex
	closed bool

	handler MessageHandler

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
	bytesSent        int64
	bytesReceived    int64
}

// NewClient creates a client over conn. Zero config fields fall back to the
// defaults of config.Default.
func NewClient(hub *Hub, conn Connection, cfg config.WebSocketConfig, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	cfg = withDefaults(cfg)

	id := uuid.New().String()
	attrs := []any{slog.String("component", "websocket.client"), slog.String("client_id", id)}
	if traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	return &Client{
		hub:         hub,
		conn:        conn,
		cfg:         cfg,
		send:        make(chan []byte, cfg.SendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger.With(attrs...),
	}
}

func withDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	def := config.Default().WebSocket
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	return cfg
}

// ID returns the client id.
func (c *Client) ID() string { return c.id }

// TraceID returns the trace id of the upgrade request.
func (c *Client) TraceID() string { return c.traceID }

// SetHandler installs the handler for inbound messages. It must be called before
// ReadPump starts.
func (c *Client) SetHandler(h MessageHandler) { c.handler = h }

func (c *Client) context() context.Context {
	return contextFor(context.Background(), c.traceID)
}

// Send queues one message for this client only.
func (c *Client) Send(msgType events.MessageType, data interface{}) error {
	payload, err := encode(msgType, data, c.traceID)
	if err != nil {
		return err
	}
	return c.enqueue(payload)
}

func (c *Client) enqueue(payload []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump decodes page messages and hands them to the handler, one at a time.
// It returns when the connection fails.
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		if c.handler != nil {
			c.handler.Close()
		}
		c.logger.InfoContext(ctx, "websocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived),
			slog.Int64("bytes_received", c.bytesReceived))
		if c.hub != nil {
			c.hub.Unregister(c)
		} else {
			c.closeSend()
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	if c.handler != nil {
		c.handler.Open(ctx)
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(ctx, "unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived++
		c.bytesReceived += int64(len(data))
		if c.hub != nil {
			c.hub.metrics.message("in")
		}

		var msg events.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			c.logger.WarnContext(ctx, "malformed page message", slog.Int("size", len(data)))
			_ = c.Send(events.MessageTypeError, events.ViewError{Code: "MALFORMED_MESSAGE", Message: "无法解析的消息"})
			continue
		}
		if msg.Type == MessageTypeHeartbeat {
			continue
		}
		if c.handler != nil {
			c.handler.HandleMessage(contextFor(ctx, msg.TraceID), msg)
		}
	}
}

// WritePump writes queued messages and pings the page. It returns when the send
// buffer is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.logger.InfoContext(c.context(), "websocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent),
			slog.Int64("bytes_sent", c.bytesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "error writing websocket message",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++
			c.bytesSent += int64(len(message))
			if c.hub != nil {
				c.hub.metrics.message("out")
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "failed to send ping", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// ServeWS registers a client for an upgraded connection and starts its pumps.
// factory, when set, builds the client's message handler.
func ServeWS(hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig, traceID string, factory HandlerFactory, logger *slog.Logger) *Client {
	client := NewClient(hub, NewConnectionWrapper(conn), cfg, traceID, logger)
	if factory != nil {
		client.SetHandler(factory(client))
	}
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return client
}
