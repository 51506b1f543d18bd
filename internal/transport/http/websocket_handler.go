package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"edudash/internal/config"
	"edudash/internal/infrastructure"
	tracing "edudash/internal/middleware"
	"edudash/internal/session"
	ws "edudash/internal/websocket"
)

// WebSocketHandler upgrades page connections and binds each one to a session.
type WebSocketHandler struct {
	hub            *ws.Hub
	cfg            config.WebSocketConfig
	allowedOrigins []string
	deps           session.Deps
	logger         *slog.Logger
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler creates the /ws handler. An empty allowedOrigins list accepts
// same-host origins only.
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, deps session.Deps, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		cfg:            cfg,
		allowedOrigins: allowedOrigins,
		deps:           deps,
		logger:         logger.With(slog.String("handler", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "websocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if id := tracing.GetRequestID(ctx); id != "" {
		ctx = infrastructure.WithTraceID(ctx, id)
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	traceID := infrastructure.GetTraceID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		return
	}

	client := ws.ServeWS(h.hub, conn, h.cfg, traceID, func(c *ws.Client) ws.MessageHandler {
		return session.New(c.ID(), c, h.deps)
	}, h.logger)

	h.logger.InfoContext(ctx, "websocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}

// checkOrigin accepts requests without an Origin header, same-host origins and
// the configured allow list.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.logger.WarnContext(r.Context(), "websocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}
