package app

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"stockdaq/internal/crawl"
)

// RunFlow runs one acquisition cycle, and in rolling mode keeps re-running it:
// run → wait for the next scheduled time → reload stock_list → run. SIGINT/SIGTERM stop the loop.
func RunFlow(ctx context.Context, cfg *Config, acq *crawl.Acquirer, symbols []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := cfg.Schedule()
	if err != nil {
		return err
	}
	for {
		started := time.Now()
		if _, err := acq.Run(ctx, symbols); err != nil {
			if ctx.Err() != nil {
				slog.Info("received signal, graceful shutdown")
				return nil
			}
			return err
		}
		slog.Info("database update finished", "took", time.Since(started).Round(time.Second))
		if !cfg.Rolling {
			return nil
		}

		next := nextRun(sched, started, time.Now())
		waitDur := time.Until(next)
		if waitDur <= 0 {
			slog.Info("next run passed, running now", "next_run", next.Format("2006-01-02 15:04"))
			symbols = reloadSymbols(cfg, symbols)
			continue
		}
		slog.Info("rolling update enabled, timer waiting", "hours", waitDur.Hours(), "until", next.Format("2006-01-02 15:04"))
		timer := time.NewTimer(waitDur)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			slog.Info("received signal, stopping", "restart_at", next.Format("2006-01-02 15:04"))
			return nil
		}
		symbols = reloadSymbols(cfg, symbols)
	}
}

// reloadSymbols re-reads stock_list, keeping prev when the file cannot be read.
func reloadSymbols(cfg *Config, prev []string) []string {
	symbols, err := ProvideSymbols(cfg)
	if err != nil {
		slog.Warn("could not reload stock list, keeping previous", "path", cfg.StockList, "count", len(prev), "error", err)
		return prev
	}
	if len(symbols) != len(prev) {
		slog.Info("stock list reloaded", "path", cfg.StockList, "count", len(symbols), "previous", len(prev))
	}
	return symbols
}

// nextRun measures a constant delay from the start of the last cycle; a cron
// schedule fires at its next slot after the cycle finished.
func nextRun(s cron.Schedule, started, finished time.Time) time.Time {
	if _, ok := s.(cron.ConstantDelaySchedule); ok {
		return s.Next(started)
	}
	return s.Next(finished)
}
