// Package app wires the dashboard server together and runs it.
//
// New builds, in order: OpenTelemetry providers and business metrics, the
// dataset loader and catalog over the configured source, the websocket hub,
// the data and health services, and the chi router. Start launches the hub,
// the optional dataset preload and the listener; Run adds SIGINT/SIGTERM
// handling and a bounded graceful shutdown.
//
// Routes:
//
//	/ws                 dashboard page websocket (one session per page)
//	/metrics            Prometheus exposition
//	/api/health[/ready|/live], /api/version
//	/api/logs           browser log sink
//	/api/metrics/...    websocket statistics
//	/api/datasets, /api/regions, /api/views, /api/map
//	/*                  static pages from web.static_dir
package app
