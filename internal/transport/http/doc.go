// Package http implements the dashboard's HTTP handlers: dataset listing, filtered
// records, slider bounds, trend lines, xlsx/csv/png exports, the map summary, health
// checks, Prometheus metrics, the websocket upgrade and the static page.
//
// Handlers stay thin. They parse and validate the request (go-playground/validator),
// call the services layer and render the result with go-chi/render. JSON successes
// use the envelope
//
//	{"status": "success", "data": ..., "count": n}
//
// and every failure goes through errors.ErrorHandler, which answers RFC 7807 problem
// details.
//
// Filters are passed as repeated query parameters of the form column:min:max, for
// example
//
//	/api/datasets/all_data?filter=一本率:20:100&filter=教育经费合计:1e8:
//
// where an empty max means unbounded.
package http
