// README: Competitor cache with a process-local mirror, optional shared store and per-key single-flight.
package competitor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window for cached competitor data.
const DefaultTTL = 5 * time.Minute

// Fetcher loads competitor rates for a key. *Source implements it.
type Fetcher interface {
	Fetch(ctx context.Context, city, category string) ([]Rate, string)
}

type CacheOptions struct {
	TTL time.Duration
	// Shared is consulted after the local mirror misses. Nil keeps the cache process-local.
	Shared Store
	Now    func() time.Time
	Logger *slog.Logger
}

// Cache memoizes Fetcher results per (city, category). Every entry it
// observes is mirrored into a local MemoryStore so CachedOnly never does I/O.
type Cache struct {
	source Fetcher
	local  *MemoryStore
	shared Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
	group  singleflight.Group
}

func NewCache(source Fetcher, opts CacheOptions) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		source: source,
		local:  NewMemoryStore(),
		shared: opts.Shared,
		ttl:    opts.TTL,
		now:    opts.Now,
		logger: opts.Logger,
	}
}

type fetchResult struct {
	rates       []Rate
	lastScraped string
}

// GetOrFetch returns a fresh entry for the key, fetching and storing a new one
// when none exists. Concurrent misses for one key share a single fetch.
// The returned slice is shared with the cache; use CloneRates before editing it.
func (c *Cache) GetOrFetch(ctx context.Context, city, category string) ([]Rate, string) {
	key := NewKey(city, category)
	if e, ok := c.local.peek(key); ok && e.FreshAt(c.now(), c.ttl) {
		c.logger.Debug("competitor cache hit", "key", key.String(), "tier", "local")
		return e.Data, e.LastScraped
	}

	// The flight is shared by every waiter on the key, so it must outlive the
	// caller that started it. The Source's own timeout still bounds it.
	fctx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		// A flight that finished between the check above and DoChan may have stored it.
		if e, ok := c.local.peek(key); ok && e.FreshAt(c.now(), c.ttl) {
			return fetchResult{rates: e.Data, lastScraped: e.LastScraped}, nil
		}
		if e, ok := c.sharedFresh(fctx, key); ok {
			c.logger.Debug("competitor cache hit", "key", key.String(), "tier", "shared")
			c.local.Put(fctx, key, e)
			return fetchResult{rates: e.Data, lastScraped: e.LastScraped}, nil
		}
		c.logger.Debug("competitor cache miss", "key", key.String())
		return c.fetchAndStore(fctx, key), nil
	})

	select {
	case r := <-ch:
		res := r.Val.(fetchResult)
		return res.rates, res.lastScraped
	case <-ctx.Done():
		c.logger.Debug("competitor cache caller gone, fetch continues", "key", key.String())
		return c.CachedOnly(city, category)
	}
}

// CachedOnly returns whatever the local mirror holds for the key, fresh or
// stale, without touching the network or the shared store. On a miss it
// returns the static catalog and LastScrapedFallback.
func (c *Cache) CachedOnly(city, category string) ([]Rate, string) {
	key := NewKey(city, category)
	if e, ok := c.local.peek(key); ok {
		return e.Data, e.LastScraped
	}
	return Lookup(string(key.Category)), LastScrapedFallback
}

// Refresh fetches the key unconditionally and replaces any stored entry.
// Nothing is stored when ctx ends before the fetch completes.
func (c *Cache) Refresh(ctx context.Context, city, category string) ([]Rate, string) {
	key := NewKey(city, category)
	v, _, _ := c.group.Do("refresh:"+key.String(), func() (any, error) {
		return c.fetchAndStore(ctx, key), nil
	})
	res := v.(fetchResult)
	return res.rates, res.lastScraped
}

func (c *Cache) fetchAndStore(ctx context.Context, key Key) fetchResult {
	rates, lastScraped := c.source.Fetch(ctx, key.City, string(key.Category))
	if ctx.Err() != nil {
		// The fallback reflects our own cancellation, not the remote service.
		c.logger.Debug("competitor fetch abandoned, not caching", "key", key.String(), "error", ctx.Err())
		return fetchResult{rates: rates, lastScraped: lastScraped}
	}
	e := Entry{Data: rates, FetchedAt: c.now(), LastScraped: lastScraped}
	c.local.Put(ctx, key, e)
	if c.shared != nil {
		if err := c.shared.Put(ctx, key, e); err != nil {
			c.logger.Warn("competitor shared cache put failed", "key", key.String(), "error", err)
		}
	}
	return fetchResult{rates: rates, lastScraped: lastScraped}
}

func (c *Cache) sharedFresh(ctx context.Context, key Key) (Entry, bool) {
	if c.shared == nil {
		return Entry{}, false
	}
	e, ok, err := c.shared.Get(ctx, key)
	if err != nil {
		c.logger.Warn("competitor shared cache get failed", "key", key.String(), "error", err)
		return Entry{}, false
	}
	if !ok || !e.FreshAt(c.now(), c.ttl) {
		return Entry{}, false
	}
	return e, true
}
