// Package events defines the messages exchanged with the dashboard page over its
// websocket: chart commands pushed by the server, page intents sent by the browser,
// and the coordination events views announce to each other.
package events

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Coordination events, mirrored to the page for its own widgets
	MessageTypeMapDataReady        MessageType = "mapDataReady"
	MessageTypeMapDataFailed       MessageType = "mapDataFailed"
	MessageTypeGlobalRegionChanged MessageType = "globalRegionChanged"

	// Server to page
	MessageTypeChartCommand     MessageType = "chart:command"
	MessageTypeViewActivated    MessageType = "view:activated"
	MessageTypeViewError        MessageType = "view:error"
	MessageTypeDatasetsReloaded MessageType = "datasets:reloaded"
	MessageTypeConnection       MessageType = "connection"

	// Page to server
	MessageTypeViewShow     MessageType = "view:show"
	MessageTypeRegionSelect MessageType = "region:select"
	MessageTypeControlSet   MessageType = "control:set"
	MessageTypeResize       MessageType = "resize"

	MessageTypeError MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// InboundMessage is a page message whose payload is decoded by type.
type InboundMessage struct {
	BaseMessage
	Data json.RawMessage `json:"data,omitempty"`
}

// Chart commands understood by the page.
const (
	CommandSetOption      = "setOption"
	CommandDispatchAction = "dispatchAction"
	CommandResize         = "resize"
	CommandDispose        = "dispose"
	CommandShowLoading    = "showLoading"
	CommandHideLoading    = "hideLoading"
	CommandClear          = "clear"
	CommandShowMessage    = "showMessage"
	CommandRegisterMap    = "registerMap"
	CommandUpdatePanel    = "updatePanel"
)

// ChartCommand asks the page to call one method on a chart instance or to
// replace the contents of a non-chart panel (side info, table, selectors).
type ChartCommand struct {
	Chart    string          `json:"chart"`
	Command  string          `json:"command"`
	Option   interface{}     `json:"option,omitempty"`
	NotMerge bool            `json:"notMerge,omitempty"`
	Action   interface{}     `json:"action,omitempty"`
	Text     string          `json:"text,omitempty"`
	IsError  bool            `json:"isError,omitempty"`
	MapName  string          `json:"mapName,omitempty"`
	GeoJSON  json.RawMessage `json:"geoJson,omitempty"`
	Panel    interface{}     `json:"panel,omitempty"`
}

// ViewShowRequest is the payload of view:show.
type ViewShowRequest struct {
	View string `json:"view" validate:"required"`
}

// RegionSelectRequest is the payload of region:select. Empty means all regions.
type RegionSelectRequest struct {
	Region string `json:"region"`
}

// ControlSetRequest is the payload of control:set.
type ControlSetRequest struct {
	View    string `json:"view" validate:"required"`
	Control string `json:"control" validate:"required"`
	Value   string `json:"value"`
}

// ViewActivated is sent after the router switches views.
type ViewActivated struct {
	View  string `json:"view"`
	First bool   `json:"first"`
}

// ViewError reports a failed page request back to the page.
type ViewError struct {
	View    string `json:"view,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RegionChangedEvent mirrors globalRegionChanged.
type RegionChangedEvent struct {
	Region string `json:"region"`
}

// MapDataReadyEvent mirrors mapDataReady without the records.
type MapDataReadyEvent struct {
	Regions []string `json:"regions"`
	Records int      `json:"records"`
}

// MapDataFailedEvent mirrors mapDataFailed.
type MapDataFailedEvent struct {
	Message string `json:"message"`
}

// ConnectionEvent greets a new page.
type ConnectionEvent struct {
	ClientID        string   `json:"client_id"`
	ProtocolVersion string   `json:"protocol_version"`
	Views           []string `json:"views"`
	DefaultView     string   `json:"default_view"`
}

// DatasetsReloadedEvent is broadcast after a catalog reload.
type DatasetsReloadedEvent struct {
	Datasets []string  `json:"datasets"`
	At       time.Time `json:"at"`
}
