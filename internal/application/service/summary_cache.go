package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// DefaultSummaryTTL is how long dashboard counters are served from cache
const DefaultSummaryTTL = 60 * time.Second

// SummaryCache stores per-user dashboard counters. Any report mutation
// flushes it entirely. A nil *SummaryCache caches nothing.
//
// Every flush bumps a generation. Counters computed under an older
// generation are never stored, so a read racing a mutation cannot pin
// stale numbers for a full TTL.
type SummaryCache struct {
	cache  port.Cache
	ttl    time.Duration
	logger Logger

	mu  sync.RWMutex
	gen uint64
}

// NewSummaryCache wraps cache; ttl <= 0 selects DefaultSummaryTTL
func NewSummaryCache(cache port.Cache, ttl time.Duration, logger Logger) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryCache{cache: cache, ttl: ttl, logger: logger}
}

// SummaryKey identifies a user's counters by id, roles and departments
func SummaryKey(u *entity.User) string {
	return fmt.Sprintf("summary:%d:%s:%s",
		u.ID,
		strings.Join(u.Roles.Slice(), ","),
		strings.Join(u.Departments.Slice(), ","),
	)
}

func (c *SummaryCache) get(ctx context.Context, u *entity.User) (*entity.SummaryCounts, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	raw, ok, err := c.cache.Get(ctx, SummaryKey(u))
	if err != nil {
		c.logger.Error("Summary cache read failed", "error", err, "user_id", u.ID)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var counts entity.SummaryCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, false
	}
	return &counts, true
}

// generation is read before computing counters and handed back to set
func (c *SummaryCache) generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *SummaryCache) set(ctx context.Context, u *entity.User, counts *entity.SummaryCounts, gen uint64) {
	if c == nil || c.cache == nil {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gen != gen {
		return
	}
	if err := c.cache.Set(ctx, SummaryKey(u), raw, c.ttl); err != nil {
		c.logger.Error("Summary cache write failed", "error", err, "user_id", u.ID)
	}
}

// Invalidate drops every cached summary
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil || c.cache == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if err := c.cache.InvalidateAll(ctx); err != nil {
		c.logger.Error("Summary cache flush failed", "error", err)
	}
}
