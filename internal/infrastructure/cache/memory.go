// Package cache provides the port.Cache implementations behind the summary cache.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache. It doubles as a worker that sweeps
// expired entries on an interval.
type MemoryCache struct {
	entries sync.Map
	sweep   time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMemoryCache creates a MemoryCache; sweep <= 0 disables the background sweeper
func NewMemoryCache(sweep time.Duration, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		sweep:  sweep,
		logger: logger,
		now:    time.Now,
	}
}

// Get implements port.Cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found := c.entries.Load(key)
	if !found {
		return nil, false, nil
	}

	entry := val.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.entries.Delete(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set implements port.Cache
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.entries.Store(key, &cacheEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	})
	return nil
}

// InvalidateAll implements port.Cache
func (c *MemoryCache) InvalidateAll(ctx context.Context) error {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
	return nil
}

// Len counts live and not yet swept entries
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Purge drops expired entries and returns how many were removed
func (c *MemoryCache) Purge() int {
	now := c.now()
	removed := 0
	c.entries.Range(func(key, val interface{}) bool {
		if now.After(val.(*cacheEntry).expiresAt) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Name implements worker.Worker
func (c *MemoryCache) Name() string {
	return "cache-sweeper"
}

// Start implements worker.Worker
func (c *MemoryCache) Start(ctx context.Context) error {
	if c.sweep <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(c.sweep)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Purge(); n > 0 {
					c.logger.Debug("Expired cache entries swept", zap.Int("count", n))
				}
			}
		}
	}(c.done)
	return nil
}

// Stop implements worker.Worker
func (c *MemoryCache) Stop() error {
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

var _ port.Cache = (*MemoryCache)(nil)
