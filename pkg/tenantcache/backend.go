package tenantcache

import (
	"context"
	"time"
)

// Backend is the shared key/value store behind every tenant's cache.
// Implemented by redis.Storage and cache.Memory.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys and returns how many existed. When some deletes fail the
	// error should implement PartialDeleteError; otherwise every key not counted as
	// deleted is reported as failed.
	Delete(ctx context.Context, keys ...string) (int, error)
	// Keys enumerates keys matching a glob pattern with Redis semantics.
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// PartialDeleteError reports exactly how many keys of a Delete call failed, so keys
// that were already gone are not counted as failures. Implemented by *redis.DeleteError.
type PartialDeleteError interface {
	error
	FailedKeys() int
}
