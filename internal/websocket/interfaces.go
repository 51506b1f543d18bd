package websocket

import (
	"context"
	"time"

	"edudash/pkg/contracts/events"
)

// Connection is the subset of a websocket connection the client uses. It lets
// tests drive the pumps without a network.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// MessageHandler owns the page state of one client. All three methods run on the
// client's read pump, so a handler sees its messages one at a time.
type MessageHandler interface {
	// Open runs once before the first inbound message is read.
	Open(ctx context.Context)
	HandleMessage(ctx context.Context, msg events.InboundMessage)
	// Close runs once after the connection is gone.
	Close()
}

// HandlerFactory builds the handler of a newly connected client.
type HandlerFactory func(c *Client) MessageHandler
