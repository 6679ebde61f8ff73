package tenantcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
)

// Cache is the tenant-scoped view of a shared Backend. Every key it touches is
// derived from the tenant bound to ctx, so one Cache instance serves all tenants
// and no method can reach another tenant's entries.
type Cache struct {
	evictor
	ns *Namespace
}

// New creates a tenant-scoped cache.
func New(backend Backend, ns *Namespace, opts ...Option) *Cache {
	if backend == nil || ns == nil {
		panic("tenantcache: backend and namespace are required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.With(logger.Component("tenantcache"))
	return &Cache{evictor: evictor{backend: backend, opts: o}, ns: ns}
}

// Namespace returns the key builder used by the cache.
func (c *Cache) Namespace() *Namespace {
	return c.ns
}

// Get reads one entry of cacheName.
func (c *Cache) Get(ctx context.Context, cacheName string, parts ...string) ([]byte, bool, error) {
	return c.backend.Get(ctx, c.ns.Key(ctx, cacheName, parts...))
}

// Set writes one entry of cacheName. A zero ttl means no expiration.
func (c *Cache) Set(ctx context.Context, cacheName string, value []byte, ttl time.Duration, parts ...string) error {
	return c.backend.Set(ctx, c.ns.Key(ctx, cacheName, parts...), value, ttl)
}

// EvictEntry removes a single entry.
func (c *Cache) EvictEntry(ctx context.Context, cacheName string, parts ...string) EvictionReport {
	key := c.ns.Key(ctx, cacheName, parts...)
	rep := c.deleteKeys(ctx, metrics.ScopeEntry, []string{key})
	rep.Patterns = []string{key}
	c.logReport(ctx, slog.LevelDebug, "cache entry evicted", metrics.ScopeEntry, rep)
	return rep
}

// EvictCache removes every entry of cacheName for the current tenant.
func (c *Cache) EvictCache(ctx context.Context, cacheName string) EvictionReport {
	rep := c.evictPattern(ctx, metrics.ScopeCache, c.ns.Pattern(ctx, cacheName))
	c.logReport(ctx, slog.LevelInfo, "cache evicted", metrics.ScopeCache, rep)
	return rep
}

// EvictAllForTenant removes everything the current tenant owns. Without a bound tenant
// it evicts the public entries only.
func (c *Cache) EvictAllForTenant(ctx context.Context) EvictionReport {
	rep := c.evictPattern(ctx, metrics.ScopeTenant, c.ns.Pattern(ctx, allCaches))
	c.logReport(ctx, slog.LevelInfo, "tenant cache evicted", metrics.ScopeTenant, rep)
	return rep
}

// Remember returns the cached value for id, calling load and caching its result on a miss.
// Backend and encoding errors are logged and treated as misses; only load errors are returned.
// A non-positive ttl uses the cache default.
func Remember[K, V any](ctx context.Context, c *Cache, keyer *Keyer[K], id K, ttl time.Duration, load func(ctx context.Context) (V, error)) (V, error) {
	key := keyer.Key(ctx, id)
	log := c.opts.log.With(slog.String("key", key))

	if raw, ok, err := c.backend.Get(ctx, key); err != nil {
		log.WarnContext(ctx, "cache read failed", logger.Error(err))
	} else if ok {
		var v V
		err := json.Unmarshal(raw, &v)
		if err == nil {
			return v, nil
		}
		log.WarnContext(ctx, "cache entry undecodable", logger.Error(err))
	}

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		log.WarnContext(ctx, "cache entry not encodable", logger.Error(err))
		return v, nil
	}
	if ttl <= 0 {
		ttl = c.opts.ttl
	}
	if err := c.backend.Set(ctx, key, raw, ttl); err != nil {
		log.WarnContext(ctx, "cache write failed", logger.Error(err))
	}
	return v, nil
}
