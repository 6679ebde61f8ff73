package tenantcache_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
	"github.com/dmitrymomot/tenantkit/pkg/cache"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
	"github.com/dmitrymomot/tenantkit/pkg/tenantcache"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// flakyBackend wraps Memory and fails the configured operations.
type flakyBackend struct {
	*cache.Memory
	failKeys   bool
	failDelete bool
}

func (b *flakyBackend) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := b.Memory.Keys(ctx, pattern)
	if b.failKeys {
		// Partial enumeration: the backend reports what it saw before failing.
		if len(keys) > 1 {
			keys = keys[:1]
		}
		return keys, errors.New("scan: connection reset")
	}
	return keys, err
}

func (b *flakyBackend) Delete(ctx context.Context, keys ...string) (int, error) {
	if b.failDelete {
		return 0, errors.New("unlink: READONLY")
	}
	return b.Memory.Delete(ctx, keys...)
}

// partialBackend reports keys that vanished before Keys returned and fails
// deletes of keys containing failSubstr, the way a Redis pipeline does.
type partialBackend struct {
	*cache.Memory
	vanished   []string
	failSubstr string
}

type partialDeleteError struct{ failed int }

func (e *partialDeleteError) Error() string { return "unlink: READONLY" }
func (e *partialDeleteError) FailedKeys() int { return e.failed }

func (b *partialBackend) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := b.Memory.Keys(ctx, pattern)
	return append(keys, b.vanished...), err
}

func (b *partialBackend) Delete(ctx context.Context, keys ...string) (int, error) {
	var ok []string
	failed := 0
	for _, k := range keys {
		if strings.Contains(k, b.failSubstr) {
			failed++
			continue
		}
		ok = append(ok, k)
	}
	n, _ := b.Memory.Delete(ctx, ok...)
	if failed > 0 {
		return n, &partialDeleteError{failed: failed}
	}
	return n, nil
}

func seed(t *testing.T, ctx context.Context, c *tenantcache.Cache, cacheName string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, c.Set(ctx, cacheName, []byte(id), time.Minute, id))
	}
}

func TestCacheIsolation(t *testing.T) {
	t.Parallel()

	c := tenantcache.New(cache.NewMemory(0), tenantcache.NewNamespace("app"), tenantcache.WithLogger(quietLogger()))
	ctxA, ctxB := tenantCtx(t, tenantA), tenantCtx(t, tenantB)

	require.NoError(t, c.Set(ctxA, "products", []byte("from-a"), time.Minute, "p1"))

	val, ok, err := c.Get(ctxA, "products", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("from-a"), val)

	_, ok, err = c.Get(ctxB, "products", "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(context.Background(), "products", "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheEviction(t *testing.T) {
	t.Parallel()

	newCache := func() (*tenantcache.Cache, *cache.Memory) {
		mem := cache.NewMemory(0)
		return tenantcache.New(mem, tenantcache.NewNamespace("app"),
			tenantcache.WithLogger(quietLogger()),
			tenantcache.WithBatchSize(2),
		), mem
	}

	t.Run("evict entry", func(t *testing.T) {
		t.Parallel()

		c, _ := newCache()
		ctxA := tenantCtx(t, tenantA)
		seed(t, ctxA, c, "products", "p1", "p2")

		rep := c.EvictEntry(ctxA, "products", "p1")
		assert.Equal(t, 1, rep.Matched)
		assert.Equal(t, 1, rep.Deleted)
		assert.True(t, rep.OK())

		_, ok, _ := c.Get(ctxA, "products", "p1")
		assert.False(t, ok)
		_, ok, _ = c.Get(ctxA, "products", "p2")
		assert.True(t, ok)
	})

	t.Run("evict cache touches one cache of one tenant", func(t *testing.T) {
		t.Parallel()

		c, mem := newCache()
		ctxA, ctxB := tenantCtx(t, tenantA), tenantCtx(t, tenantB)
		seed(t, ctxA, c, "products", "p1", "p2", "p3", "p4", "p5")
		seed(t, ctxA, c, "orders", "o1")
		seed(t, ctxB, c, "products", "p1")

		rep := c.EvictCache(ctxA, "products")
		assert.Equal(t, 5, rep.Matched)
		assert.Equal(t, 5, rep.Deleted)
		assert.Zero(t, rep.Failed)

		keys, err := mem.Keys(context.Background(), "*")
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{
			"app:tenant:" + tenantA.String() + ":orders:o1",
			"app:tenant:" + tenantB.String() + ":products:p1",
		}, keys)
	})

	t.Run("evict all for tenant", func(t *testing.T) {
		t.Parallel()

		c, mem := newCache()
		ctxA, ctxB := tenantCtx(t, tenantA), tenantCtx(t, tenantB)
		seed(t, ctxA, c, "products", "p1")
		seed(t, ctxA, c, "orders", "o1")
		seed(t, ctxB, c, "orders", "o1")
		seed(t, context.Background(), c, "plans", "basic")

		rep := c.EvictAllForTenant(ctxA)
		assert.Equal(t, 2, rep.Deleted)

		keys, err := mem.Keys(context.Background(), "*")
		require.NoError(t, err)
		assert.Len(t, keys, 2)
	})

	t.Run("backend failures are counted not returned", func(t *testing.T) {
		t.Parallel()

		backend := &flakyBackend{Memory: cache.NewMemory(0)}
		c := tenantcache.New(backend, tenantcache.NewNamespace("app"), tenantcache.WithLogger(quietLogger()))
		ctxA := tenantCtx(t, tenantA)
		seed(t, ctxA, c, "products", "p1", "p2", "p3")

		before := testutil.ToFloat64(metrics.CacheEvictionFailures.WithLabelValues(metrics.ScopeCache))

		backend.failDelete = true
		rep := c.EvictCache(ctxA, "products")
		assert.Equal(t, 3, rep.Matched)
		assert.Zero(t, rep.Deleted)
		assert.Equal(t, 3, rep.Failed)
		assert.False(t, rep.OK())

		backend.failDelete = false
		backend.failKeys = true
		rep = c.EvictCache(ctxA, "products")
		assert.True(t, rep.Incomplete)
		assert.Equal(t, 1, rep.Deleted)

		after := testutil.ToFloat64(metrics.CacheEvictionFailures.WithLabelValues(metrics.ScopeCache))
		assert.GreaterOrEqual(t, after-before, float64(2))
	})

	t.Run("keys already gone are not failures", func(t *testing.T) {
		t.Parallel()

		backend := &partialBackend{Memory: cache.NewMemory(0), failSubstr: ":p2"}
		c := tenantcache.New(backend, tenantcache.NewNamespace("app"), tenantcache.WithLogger(quietLogger()))
		ctxA := tenantCtx(t, tenantA)
		seed(t, ctxA, c, "products", "p1", "p2")
		backend.vanished = []string{c.Namespace().Key(ctxA, "products", "gone")}

		rep := c.EvictCache(ctxA, "products")
		assert.Equal(t, 3, rep.Matched)
		assert.Equal(t, 1, rep.Deleted)
		assert.Equal(t, 1, rep.Failed)
		assert.False(t, rep.OK())
	})
}

func TestRemember(t *testing.T) {
	t.Parallel()

	type product struct {
		ID    string `json:"id"`
		Price int    `json:"price"`
	}

	c := tenantcache.New(cache.NewMemory(0), tenantcache.NewNamespace(""), tenantcache.WithLogger(quietLogger()))
	keyer := tenantcache.NewKeyer(c.Namespace(), "products", func(id string) []string { return []string{id} })

	var loads atomic.Int32
	load := func(price int) func(context.Context) (product, error) {
		return func(context.Context) (product, error) {
			loads.Add(1)
			return product{ID: "p1", Price: price}, nil
		}
	}

	ctxA, ctxB := tenantCtx(t, tenantA), tenantCtx(t, tenantB)

	p, err := tenantcache.Remember(ctxA, c, keyer, "p1", time.Minute, load(10))
	require.NoError(t, err)
	assert.Equal(t, 10, p.Price)

	p, err = tenantcache.Remember(ctxA, c, keyer, "p1", time.Minute, load(99))
	require.NoError(t, err)
	assert.Equal(t, 10, p.Price)
	assert.Equal(t, int32(1), loads.Load())

	p, err = tenantcache.Remember(ctxB, c, keyer, "p1", time.Minute, load(20))
	require.NoError(t, err)
	assert.Equal(t, 20, p.Price)
	assert.Equal(t, int32(2), loads.Load())

	boom := errors.New("db down")
	_, err = tenantcache.Remember(ctxA, c, keyer, "p2", 0, func(context.Context) (product, error) {
		return product{}, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestAdminEvictEverywhere(t *testing.T) {
	t.Parallel()

	mem := cache.NewMemory(0)
	ns := tenantcache.NewNamespace("app")
	c := tenantcache.New(mem, ns, tenantcache.WithLogger(quietLogger()))

	ctxA, ctxB := tenantCtx(t, tenantA), tenantCtx(t, tenantB)
	seed(t, ctxA, c, "products", "p1", "p2")
	seed(t, ctxB, c, "products", "p1")
	seed(t, context.Background(), c, "plans", "basic")
	require.NoError(t, mem.Set(context.Background(), "other:unrelated", []byte("x"), 0))

	var buf bytes.Buffer
	auditStore := audit.NewMemoryStorage()
	admin := tenantcache.NewAdmin(mem, ns,
		tenantcache.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		tenantcache.WithAuditor(audit.NewLogger(auditStore)),
	)

	rep := admin.EvictEverywhere(context.Background())
	assert.Equal(t, 4, rep.Matched)
	assert.Equal(t, 4, rep.Deleted)
	assert.True(t, rep.OK())

	keys, err := mem.Keys(context.Background(), "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"other:unrelated"}, keys)

	assert.Contains(t, buf.String(), "scope=global")

	events := auditStore.Find(tenantcache.ActionEvictEverywhere)
	require.Len(t, events, 1)
	assert.Equal(t, "global", events[0].Scope)
	assert.Equal(t, 4, events[0].Metadata["deleted"])
}
