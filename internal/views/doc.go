// Package views holds the dashboard's chart views. Each view owns its dataset and
// filter state, renders through chart.Chart handles, and follows the global region
// through the coordinator bus.
//
// A view is driven from one goroutine (its session's read pump) and is not safe for
// concurrent use. Coordinator handlers run on the publishing goroutine, which is the
// same one.
package views
