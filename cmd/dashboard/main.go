// Command dashboard serves the education statistics dashboard: the JSON API,
// the page websocket and the static pages.
package main

import (
	"log/slog"
	"os"

	"edudash/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
