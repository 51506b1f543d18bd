package services

import "errors"

// Data service errors
var (
	// ErrNotScatterView is returned for trend and PNG requests on views without a scatter chart.
	ErrNotScatterView = errors.New("view has no scatter chart")
	// ErrReloadInProgress is returned when a reload is requested while one is running.
	ErrReloadInProgress = errors.New("dataset reload already in progress")
	// ErrExport wraps failures while encoding an export after the data was read.
	ErrExport = errors.New("export failed")
)
