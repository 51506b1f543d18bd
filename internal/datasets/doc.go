// Package datasets knows the dashboard's input files: their coercion schemas, where
// they come from (a directory or the page's HTTP origin), the metric descriptors shown
// by the map and comparison views, and how values are formatted for display.
//
// A Loader fetches and parses one dataset with tracing, metrics and logging. A Catalog
// caches loaded datasets and the GeoJSON map for the HTTP API and the views.
package datasets
