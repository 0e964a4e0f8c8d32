//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"stockdaq/internal/app"
)

// InitializeApp builds App via Wire. Caller must call cleanup when done.
func InitializeApp(ctx context.Context, path app.ConfigPath) (*App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideAdapters,
		app.ProvideLimiter,
		app.ProvideMirror,
		app.ProvideAcquirer,
		app.ProvideSymbols,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
