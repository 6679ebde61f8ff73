// Package redis connects to Redis and exposes it as a byte-oriented cache backend.
//
// Connect parses REDIS_URL and retries until the server answers. Storage implements
// Get, Set, Delete and SCAN-based Keys so it can sit behind tenantcache.Cache, and
// Healthcheck returns a readiness probe.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	storage := redis.NewStorageWithConfig(client, cfg)
//	cache := tenantcache.New(storage, tenantcache.NewNamespace("app"))
package redis
