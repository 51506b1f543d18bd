package events

import "time"

// Protocol version
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "edudash-websocket-protocol"
)

// ConnectionState of a page connection
type ConnectionState string

const (
	ConnectionStateConnecting    ConnectionState = "connecting"
	ConnectionStateConnected     ConnectionState = "connected"
	ConnectionStateDisconnecting ConnectionState = "disconnecting"
	ConnectionStateDisconnected  ConnectionState = "disconnected"
)

// ProtocolError represents a protocol-level error
type ProtocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

func (e *ProtocolError) Error() string { return e.Code + ": " + e.Message }

// Protocol error codes
const (
	ErrCodeInvalidFrame    = "INVALID_FRAME"
	ErrCodeUnsupportedType = "UNSUPPORTED_TYPE"
	ErrCodeInvalidPayload  = "INVALID_PAYLOAD"
	ErrCodeUnknownView     = "UNKNOWN_VIEW"
	ErrCodeViewFailed      = "VIEW_FAILED"
	ErrCodeMessageTooLarge = "MESSAGE_TOO_LARGE"
	ErrCodeServerError     = "SERVER_ERROR"
)

// HeartbeatMessage represents a heartbeat message
type HeartbeatMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Sequence  int64     `json:"sequence"`
}

// MetricsSnapshot represents per-connection counters
type MetricsSnapshot struct {
	ClientID         string        `json:"client_id"`
	ConnectedAt      time.Time     `json:"connected_at"`
	Duration         time.Duration `json:"duration"`
	MessagesSent     int64         `json:"messages_sent"`
	MessagesReceived int64         `json:"messages_received"`
	ErrorCount       int64         `json:"error_count"`
}
