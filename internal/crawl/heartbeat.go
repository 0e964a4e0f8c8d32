package crawl

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const heartbeatInterval = 30 * time.Second

// counters is shared between the loop and the heartbeat goroutine.
type counters struct {
	mu      sync.Mutex
	total   int
	success int
	failed  int
	rows    int
}

func newCounters(total int) *counters { return &counters{total: total} }

func (c *counters) add(ok bool, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.success++
	} else {
		c.failed++
	}
	c.rows += rows
}

func (c *counters) snapshot() (success, failed, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success, c.failed, c.rows
}

// runHeartbeat logs loop progress until ctx is done.
func runHeartbeat(ctx context.Context, interval time.Duration, c *counters, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s, f, rows := c.snapshot()
			logger.Info("heartbeat", "done", s+f, "total", c.total, "success", s, "failed", f, "rows", rows)
		}
	}
}
