// Package querycache is the read-through cache behind the renewal list and
// detail views. Consistency comes from invalidation only: a mutation marks
// entries stale and the next read fetches again.
package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"passport-portal/internal/core/domain"

	"golang.org/x/sync/singleflight"
)

// Domain is a named partition of cached reads that is invalidated together.
type Domain string

const (
	ListDomain   Domain = "renewals:list"
	DetailDomain Domain = "renewals:detail"
)

// Key addresses one cached read.
type Key struct {
	Domain Domain
	ID     string
}

func (k Key) String() string {
	return string(k.Domain) + "/" + k.ID
}

// DetailKey addresses the single-record view of a renewal.
func DetailKey(id string) Key {
	return Key{Domain: DetailDomain, ID: id}
}

// ListKey addresses one filtered, paginated listing. Equal filters map to
// the same key regardless of map order.
func ListKey(f domain.RenewalFilter) Key {
	keys := make([]string, 0, len(f.Values))
	for k := range f.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := url.Values{}
	for _, k := range keys {
		v.Set(k, f.Values[k])
	}
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("limit", strconv.Itoa(f.Limit))
	return Key{Domain: ListDomain, ID: v.Encode()}
}

// Stats counts cache activity.
type Stats struct {
	Hits          int
	Misses        int
	Invalidations int
}

type entry struct {
	value    any
	stale    bool
	storedAt time.Time
}

// Cache holds cached reads keyed by Key.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	keyGen   map[Key]uint64
	domainGn map[Domain]uint64
	stats    Stats

	group  singleflight.Group
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL expires entries after d even without invalidation. Zero disables it.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func withClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[Key]*entry),
		keyGen:   make(map[Key]uint64),
		domainGn: make(map[Domain]uint64),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the fresh cached value for key or fetches it. Concurrent
// reads of the same key share one fetch, which runs detached from any single
// caller's cancellation; a caller whose ctx ends stops waiting on its own. A
// fetch that completes after its key was invalidated still answers its
// callers but is stored stale.
func Read[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := c.peek(key); ok {
		if typed, ok := v.(T); ok {
			c.count(true)
			return typed, nil
		}
	}
	c.count(false)

	gen := c.generation(key)
	ch := c.group.DoChan(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		val, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, val, gen)
		return val, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("querycache: %s holds %T", key, res.Val)
		}
		return typed, nil
	}
}

// Peek returns a fresh cached value without fetching.
func Peek[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.peek(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// InvalidateList marks every cached listing stale. It reports whether any
// fresh entry was affected; repeating it is a no-op.
func (c *Cache) InvalidateList() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.domainGn[ListDomain]++
	changed := false
	for k, e := range c.entries {
		if k.Domain == ListDomain && !e.stale {
			e.stale = true
			changed = true
		}
	}
	c.noteInvalidation(changed, ListDomain, "")
	return changed
}

// InvalidateDetail marks the detail view of id stale.
func (c *Cache) InvalidateDetail(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := DetailKey(id)
	c.keyGen[key]++
	changed := false
	if e, ok := c.entries[key]; ok && !e.stale {
		e.stale = true
		changed = true
	}
	c.noteInvalidation(changed, DetailDomain, id)
	return changed
}

// Reset drops every entry. Fetches in flight when Reset runs are stored
// stale, so data read under a previous identity is never served fresh.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.domainGn[ListDomain]++
	c.domainGn[DetailDomain]++
	if len(c.entries) > 0 {
		c.entries = make(map[Key]*entry)
		c.stats.Invalidations++
	}
}

// Stats returns a copy of the activity counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) noteInvalidation(changed bool, d Domain, id string) {
	if !changed {
		return
	}
	c.stats.Invalidations++
	c.logger.Debug("cache invalidated", "domain", d, "id", id)
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
}

func (c *Cache) peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freshLocked(key)
}

func (c *Cache) freshLocked(key Key) (any, bool) {
	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generationLocked(key)
}

func (c *Cache) generationLocked(key Key) uint64 {
	return c.keyGen[key] + c.domainGn[key.Domain]
}

func (c *Cache) store(key Key, val any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		value:    val,
		stale:    gen != c.generationLocked(key),
		storedAt: c.now(),
	}
}
