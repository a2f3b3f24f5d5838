package tablecache

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
	"github.com/couchcryptid/alert-risk-dashboard/internal/observability"
)

// Source loads a city table from its backing store.
type Source interface {
	Load(ctx context.Context, city string) (*domain.EventTable, error)
}

// Cache wraps a Source with an in-memory LRU of parsed city tables.
// Concurrent misses for the same city share a single load. Failed loads are
// not cached.
type Cache struct {
	inner   Source
	lru     *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	group   singleflight.Group
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL expires tables ttl after they were loaded. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock replaces the wall clock used for expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// New creates a cache decorator around a table source holding at most
// maxEntries cities.
func New(inner Source, maxEntries int, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Cache {
	c := &Cache{
		inner:   inner,
		lru:     newLRUCache(maxEntries),
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached table for city, loading it from the source on a
// miss. Returned tables are shared and must not be modified.
func (c *Cache) Load(ctx context.Context, city string) (*domain.EventTable, error) {
	if table, ok := c.lookup(city); ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return table, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	gen := c.lru.generation()
	v, err, _ := c.group.Do(city, func() (any, error) {
		// Waiters share this load, so one caller's cancellation must not fail the rest.
		table, err := c.inner.Load(context.WithoutCancel(ctx), city)
		if err != nil {
			return nil, err
		}
		if evicted := c.lru.put(city, table, c.clock.Now(), gen); evicted {
			c.metrics.CacheEvictions.WithLabelValues("capacity").Inc()
		}
		c.metrics.CachedTables.Set(float64(c.lru.len()))
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.EventTable), nil
}

func (c *Cache) lookup(city string) (*domain.EventTable, bool) {
	e, ok := c.lru.get(city)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.clock.Since(e.loadedAt) >= c.ttl {
		if c.lru.delete(city) {
			c.metrics.CacheEvictions.WithLabelValues("expired").Inc()
			c.metrics.CachedTables.Set(float64(c.lru.len()))
		}
		return nil, false
	}
	return e.table, true
}

// Invalidate drops city from the cache. A load already in flight for city
// will not be stored.
func (c *Cache) Invalidate(city string) bool {
	c.group.Forget(city)
	removed := c.lru.delete(city)
	c.metrics.CachedTables.Set(float64(c.lru.len()))
	return removed
}

// Purge drops every cached table.
func (c *Cache) Purge() {
	c.lru.purge()
	c.metrics.CachedTables.Set(0)
}

// Len returns the number of cached tables.
func (c *Cache) Len() int { return c.lru.len() }

// lruCache is a thread-safe LRU of city tables. Every delete bumps the
// generation so that loads started before it are discarded.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	gen        uint64
	entries    map[string]*list.Element
	order      *list.List // front is most recently used
}

type entry struct {
	key      string
	table    *domain.EventTable
	loadedAt time.Time
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *lruCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) get(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return entry{}, false
	}
	c.order.MoveToFront(el)
	return *el.Value.(*entry), true
}

// put stores table unless the cache changed generation since gen was read.
// It reports whether another entry was evicted to make room.
func (c *lruCache) put(key string, table *domain.EventTable, loadedAt time.Time, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.table = table
		e.loadedAt = loadedAt
		c.order.MoveToFront(el)
		return false
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, table: table, loadedAt: loadedAt})
	if len(c.entries) <= c.maxEntries {
		return false
	}

	oldest := c.order.Back()
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*entry).key)
	return true
}

func (c *lruCache) delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	el, ok := c.entries[key]
	if !ok {
		return false
	}
	delete(c.entries, key)
	c.order.Remove(el)
	return true
}

func (c *lruCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}
