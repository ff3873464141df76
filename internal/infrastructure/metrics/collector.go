package metrics

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// DBCollector samples sql.DB pool statistics on an interval
type DBCollector struct {
	db       *sql.DB
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDBCollector creates a collector; interval <= 0 selects 15s
func NewDBCollector(db *sql.DB, interval time.Duration) *DBCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DBCollector{db: db, interval: interval}
}

// Name implements worker.Worker
func (c *DBCollector) Name() string {
	return "db-metrics-collector"
}

// Start implements worker.Worker
func (c *DBCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.Collect()

	go func(done chan struct{}) {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		defer close(done)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Collect()
			}
		}
	}(c.done)
	return nil
}

// Stop implements worker.Worker
func (c *DBCollector) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Collect samples the pool once
func (c *DBCollector) Collect() {
	stats := c.db.Stats()
	databaseConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	databaseConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	databaseConnections.WithLabelValues("max_open").Set(float64(stats.MaxOpenConnections))
}
