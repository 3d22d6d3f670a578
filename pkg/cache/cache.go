// Package cache provides the persistent TTL caches used by enrichment.
//
// A [Cache] is an in-memory key/value map with per-entry expiry. It is loaded
// from a [Store] once at process start, mutated by [Cache.GetOrSet] during the
// run, and written back with [Cache.Persist] at the end. Values must be
// JSON-serializable; the snapshot format is documented on [Snapshot].
//
// Failures are never cached: if the function passed to GetOrSet returns an
// error, nothing is stored and the next call for the same key runs it again.
// A transient API error therefore cannot poison the cache for a whole TTL.
//
// Concurrent misses on the same key are coalesced so that only one upstream
// call is in flight per key. This is best-effort de-duplication; storage is
// last-write-wins either way.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/holly-cummins/extensions.io/pkg/observability"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a typed TTL cache backed by a persistent [Store].
// All methods are safe for concurrent use.
type Cache[V any] struct {
	name     string
	ttl      time.Duration
	store    Store
	now      func() time.Time
	logger   *log.Logger
	coalesce bool

	mu     sync.RWMutex
	items  map[string]item[V]
	group  singleflight.Group
	loaded bool
	loadMu sync.Mutex
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now      func() time.Time
	logger   *log.Logger
	coalesce bool
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for load and persist diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithoutCoalescing disables single-flight de-duplication of concurrent misses.
func WithoutCoalescing() Option {
	return func(o *options) { o.coalesce = false }
}

// New creates an empty cache named name whose entries live for ttl.
// The name selects the snapshot within store. A nil store behaves like
// [NullStore].
func New[V any](name string, ttl time.Duration, store Store, opts ...Option) *Cache[V] {
	o := options{now: time.Now, logger: log.Default(), coalesce: true}
	for _, opt := range opts {
		opt(&o)
	}
	if store == nil {
		store = NullStore{}
	}
	return &Cache[V]{
		name:     name,
		ttl:      ttl,
		store:    store,
		now:      o.now,
		logger:   o.logger,
		coalesce: o.coalesce,
		items:    make(map[string]item[V]),
	}
}

// Name returns the cache name.
func (c *Cache[V]) Name() string { return c.name }

// TTL returns the default time-to-live.
func (c *Cache[V]) TTL() time.Duration { return c.ttl }

// GetOrSet returns the live value for key, or calls fn, stores its result
// for the default TTL and returns it. Errors from fn are returned unchanged
// and nothing is stored.
func (c *Cache[V]) GetOrSet(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, error) {
	return c.GetOrSetTTL(ctx, key, c.ttl, fn)
}

// GetOrSetTTL is [Cache.GetOrSet] with an explicit TTL for a newly stored value.
func (c *Cache[V]) GetOrSetTTL(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		observability.Cache().OnCacheHit(ctx, c.name)
		return v, nil
	}
	observability.Cache().OnCacheMiss(ctx, c.name)

	compute := func() (any, error) {
		// A coalesced caller may arrive after the value was stored.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, v, ttl)
		return v, nil
	}

	var (
		res any
		err error
	)
	if c.coalesce {
		res, err, _ = c.group.Do(key, compute)
	} else {
		res, err = compute()
	}
	if err != nil {
		var zero V
		return zero, err
	}
	v, _ := res.(V)
	return v, nil
}

// Get returns the live value for key without computing anything.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.expired(it) {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *Cache[V]) set(ctx context.Context, key string, v V, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = item[V]{value: v, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	observability.Cache().OnCacheSet(ctx, c.name, 1)
}

func (c *Cache[V]) expired(it item[V]) bool {
	return !it.expiresAt.IsZero() && !c.now().Before(it.expiresAt)
}

// Size returns the number of live entries.
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items {
		if !c.expired(it) {
			n++
		}
	}
	return n
}

// FlushAll drops every in-memory entry. The persisted snapshot is untouched
// and the next [Cache.Load] reads it again, so a later Persist does not lose
// entries that were only on disk.
func (c *Cache[V]) FlushAll() {
	c.loadMu.Lock()
	c.mu.Lock()
	c.items = make(map[string]item[V])
	c.loaded = false
	c.mu.Unlock()
	c.loadMu.Unlock()
}

// Load reads the persisted snapshot into memory. Only the first call after
// construction or [Cache.FlushAll] does any work. A missing snapshot is not an error. Expired entries
// are skipped, and entries already in memory win over loaded ones.
func (c *Cache[V]) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.loaded {
		return nil
	}
	c.loaded = true

	snap, err := c.store.Load(ctx, c.name)
	if err != nil {
		return fmt.Errorf("load cache %s: %w", c.name, err)
	}
	if snap == nil {
		c.logger.Debug("no cache snapshot", "cache", c.name)
		return nil
	}

	loaded, expired, corrupt := 0, 0, 0
	now := c.now()
	c.mu.Lock()
	for key, e := range snap.Entries {
		if !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt) {
			expired++
			continue
		}
		if _, exists := c.items[key]; exists {
			continue
		}
		var v V
		if err := json.Unmarshal(e.Value, &v); err != nil {
			corrupt++
			continue
		}
		c.items[key] = item[V]{value: v, expiresAt: e.ExpiresAt}
		loaded++
	}
	c.mu.Unlock()

	c.logger.Debug("loaded cache", "cache", c.name, "entries", loaded, "expired", expired, "corrupt", corrupt)
	return nil
}

// Persist writes every live entry to the store, replacing the previous
// snapshot. It may be called any number of times.
func (c *Cache[V]) Persist(ctx context.Context) error {
	snap := &Snapshot{Version: SnapshotVersion, Entries: make(map[string]Entry)}

	c.mu.RLock()
	for key, it := range c.items {
		if c.expired(it) {
			continue
		}
		data, err := json.Marshal(it.value)
		if err != nil {
			c.mu.RUnlock()
			return fmt.Errorf("persist cache %s: encode %q: %w", c.name, key, err)
		}
		snap.Entries[key] = Entry{Value: data, ExpiresAt: it.expiresAt}
	}
	c.mu.RUnlock()

	if err := c.store.Save(ctx, c.name, snap); err != nil {
		return fmt.Errorf("persist cache %s: %w", c.name, err)
	}
	c.logger.Debug("persisted cache", "cache", c.name, "entries", len(snap.Entries))
	return nil
}
