// Package cache provides in-process caching primitives.
//
// LRU is a generic, size-bounded cache with optional per-entry TTL; the tenant
// middleware uses it to memoise registry lookups. Memory is a byte-oriented
// key/value store built on LRU that supports glob key enumeration, so it can
// back the tenant-scoped cache in tests and single-node deployments.
//
//	c := cache.NewLRU[string, int](100)
//	c.Set("a", 1, time.Minute)
//	v, ok := c.Get("a")
//
//	store := cache.NewMemory(0)
//	_ = store.Set(ctx, "tenant:42:products:p1", data, 0)
//	keys, _ := store.Keys(ctx, "tenant:42:*")
package cache
