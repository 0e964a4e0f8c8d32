package app

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"stockdaq/internal/crawl"
	"stockdaq/internal/mirror"
	"stockdaq/internal/provider"
	"stockdaq/internal/slogx"
	"stockdaq/internal/symbol"
)

// ConfigPath is the location of the YAML configuration.
type ConfigPath string

// ProvideConfig loads the configuration (for Wire).
func ProvideConfig(path ConfigPath) (*Config, error) {
	return LoadConfig(string(path))
}

// ProvideLogger installs the configured logger as the slog default (for Wire).
// The cleanup closes the log file.
func ProvideLogger(cfg *Config) (*slog.Logger, func()) {
	logger, closer := slogx.New(cfg.Logging.Level, cfg.LogFile())
	slog.SetDefault(logger)
	return logger, func() { _ = closer.Close() }
}

// ProvideAdapters creates the adapters in api_list order (for Wire).
func ProvideAdapters(cfg *Config) ([]provider.Adapter, error) {
	adapters := make([]provider.Adapter, 0, len(cfg.APIList))
	for _, name := range cfg.APIList {
		ad, err := NewAdapter(name, cfg)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, ad)
	}
	return adapters, nil
}

// ProvideLimiter enforces api_call_interval between vendor calls (for Wire).
// An unset interval falls back to DefaultAPICallInterval.
func ProvideLimiter(cfg *Config) *rate.Limiter {
	every := cfg.APICallInterval
	if every <= 0 {
		every = DefaultAPICallInterval
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

// ProvideMirror returns nil when mirroring is disabled (for Wire).
func ProvideMirror(ctx context.Context, cfg *Config) (crawl.Mirror, error) {
	if !cfg.Mirror.Enabled {
		return nil, nil
	}
	m, err := mirror.New(ctx, mirror.Config{
		Bucket:    cfg.Mirror.Bucket,
		Region:    cfg.Mirror.Region,
		Endpoint:  cfg.Mirror.Endpoint,
		Prefix:    cfg.Mirror.Prefix,
		PathStyle: cfg.Mirror.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ProvideAcquirer wires the acquisition loop (for Wire).
func ProvideAcquirer(cfg *Config, adapters []provider.Adapter, limiter *rate.Limiter, m crawl.Mirror) (*crawl.Acquirer, error) {
	cc, err := cfg.CrawlConfig()
	if err != nil {
		return nil, err
	}
	return crawl.New(cc, adapters, limiter, m), nil
}

// ProvideSymbols reads the configured stock list (for Wire).
func ProvideSymbols(cfg *Config) ([]string, error) {
	return symbol.GetSymbolList(cfg.StockList, nil)
}
