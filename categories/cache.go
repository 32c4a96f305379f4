// Package categories keeps the process-wide list of top categories shown in
// the site navigation.
package categories

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eringen/newsdesk/content"
	"github.com/eringen/newsdesk/ranking"
)

const (
	DefaultTTL   = 5 * time.Minute
	DefaultLimit = 8
)

// Cache is a read-through TTL cache of the top published categories by
// article count. It is never invalidated by writes; entries simply expire.
type Cache struct {
	mu         sync.RWMutex
	categories []string
	expiresAt  time.Time

	source content.CategoryCounter
	ttl    time.Duration
	limit  int
	log    *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

func WithLimit(n int) Option {
	return func(c *Cache) {
		c.limit = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.log = l
	}
}

// New creates an empty (stale) Cache backed by source.
func New(source content.CategoryCounter, opts ...Option) *Cache {
	c := &Cache{
		source: source,
		ttl:    DefaultTTL,
		limit:  DefaultLimit,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) fresh(now time.Time) bool {
	return !c.expiresAt.IsZero() && !now.After(c.expiresAt)
}

// Get returns the cached category names, recomputing them first when the
// entry expired before now. A failed recomputation yields an empty slice
// and leaves the expiry untouched so the next call retries.
func (c *Cache) Get(ctx context.Context, now time.Time) []string {
	c.mu.RLock()
	if c.fresh(now) {
		cats := c.categories
		c.mu.RUnlock()
		return clone(cats)
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh(now) {
		return clone(c.categories)
	}
	counts, err := c.source.CountByCategory(ctx)
	if err != nil {
		c.log.Error("category cache refresh failed", "error", err)
		return []string{}
	}
	c.categories = topNames(counts, c.limit)
	c.expiresAt = now.Add(c.ttl)
	c.log.Debug("category cache refreshed", "categories", len(c.categories), "expires_at", c.expiresAt)
	return clone(c.categories)
}

// ExpiresAt reports the current expiry; zero means never loaded.
func (c *Cache) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}

func topNames(counts []content.CategoryCount, limit int) []string {
	kept := make([]content.CategoryCount, 0, len(counts))
	for _, cc := range counts {
		if cc.Name != "" {
			kept = append(kept, cc)
		}
	}
	kept = ranking.CategoryListing(kept)
	if len(kept) > limit {
		kept = kept[:limit]
	}
	names := make([]string, len(kept))
	for i, cc := range kept {
		names[i] = cc.Name
	}
	return names
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
