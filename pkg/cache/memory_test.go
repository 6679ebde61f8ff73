package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/cache"
)

func TestMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("get returns a copy", func(t *testing.T) {
		t.Parallel()
		m := cache.NewMemory(0)
		require.NoError(t, m.Set(ctx, "k", []byte("value"), 0))

		v, ok, err := m.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		v[0] = 'X'

		again, _, _ := m.Get(ctx, "k")
		assert.Equal(t, "value", string(again))
	})

	t.Run("keys by pattern and delete", func(t *testing.T) {
		t.Parallel()
		m := cache.NewMemory(0)
		for _, k := range []string{"tenant:a:p:1", "tenant:a:p:2", "tenant:b:p:1", "public:p:1"} {
			require.NoError(t, m.Set(ctx, k, []byte("x"), 0))
		}

		keys, err := m.Keys(ctx, "tenant:a:*")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"tenant:a:p:1", "tenant:a:p:2"}, keys)

		n, err := m.Delete(ctx, append(keys, "missing")...)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		keys, err = m.Keys(ctx, "*")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"tenant:b:p:1", "public:p:1"}, keys)
	})

	t.Run("expired keys are not enumerated", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		m := cache.NewMemory(0)
		m.SetClock(clock.Now)

		require.NoError(t, m.Set(ctx, "a", []byte("x"), time.Second))
		clock.Advance(time.Minute)

		keys, err := m.Keys(ctx, "*")
		require.NoError(t, err)
		assert.Empty(t, keys)

		_, ok, err := m.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
