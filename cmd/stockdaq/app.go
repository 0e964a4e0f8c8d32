package main

import (
	"log/slog"

	"stockdaq/internal/app"
	"stockdaq/internal/crawl"
)

// App holds application dependencies built by Wire.
type App struct {
	Config   *app.Config
	Logger   *slog.Logger
	Acquirer *crawl.Acquirer
	Symbols  []string
}
