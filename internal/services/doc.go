// Package services implements the application layer between the HTTP handlers and
// the dataset catalog.
//
// DataService answers dataset, bounds, trend, map and export requests and broadcasts
// datasets:reloaded to connected pages after a reload. HealthService reports
// liveness, readiness (every dataset and the map cached) and build information.
//
// Services return sentinel errors from the packages they wrap (datasets.ErrUnknownDataset,
// router.ErrUnknownView, rangefilter.ErrUnknownColumn, *csvtable.LoadError); the
// errors package maps them to problem responses.
package services
