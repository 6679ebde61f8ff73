// Package tenantcache partitions a shared cache backend per tenant.
//
// Keys always start with the owner segment, so pattern-based bulk eviction of one
// tenant can never match another tenant's entries:
//
//	[prefix:]tenant:<uuid>:<cacheName>:<parts...>
//	[prefix:]public:<cacheName>:<parts...>
//
// The tenant is read from the request context at call time. Typed key builders
// (Keyer) replace ad-hoc string concatenation:
//
//	ns := tenantcache.NewNamespace("app")
//	products := tenantcache.NewKeyer(ns, "products", func(id string) []string { return []string{id} })
//	c := tenantcache.New(redis.NewStorage(client), ns)
//
//	p, err := tenantcache.Remember(ctx, c, products, "p1", time.Minute, loadProduct)
//	report := c.EvictCache(ctx, "products")
//
// Bulk evictions return an EvictionReport; backend failures are counted in
// tenantkit_cache_eviction_failures_total and logged, never returned, because a stale
// cache is recoverable and a failed request is not.
//
// Admin.EvictEverywhere clears every tenant at once. It lives on a separate type,
// logs with scope=global and records a cache.evict_everywhere audit event.
package tenantcache
