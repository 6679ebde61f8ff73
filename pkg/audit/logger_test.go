package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
)

type ctxKey struct{}

func TestLogger(t *testing.T) {
	t.Parallel()

	t.Run("log fills context values", func(t *testing.T) {
		t.Parallel()

		storage := audit.NewMemoryStorage()
		l := audit.NewLogger(storage,
			audit.WithTenantIDExtractor(func(ctx context.Context) (string, bool) {
				v, ok := ctx.Value(ctxKey{}).(string)
				return v, ok
			}),
			audit.WithRequestIDExtractor(func(context.Context) (string, bool) { return "req-1", true }),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "tenant-a")
		require.NoError(t, l.Log(ctx, "cache.evict", audit.WithScope("tenant"), audit.WithMetadata("deleted", 3)))

		events := storage.Events()
		require.Len(t, events, 1)
		e := events[0]
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, "tenant-a", e.TenantID)
		assert.Equal(t, "req-1", e.RequestID)
		assert.Equal(t, "tenant", e.Scope)
		assert.Equal(t, audit.ResultSuccess, e.Result)
		assert.Equal(t, 3, e.Metadata["deleted"])
		assert.False(t, e.CreatedAt.IsZero())
	})

	t.Run("log error", func(t *testing.T) {
		t.Parallel()

		storage := audit.NewMemoryStorage()
		l := audit.NewLogger(storage)

		require.NoError(t, l.LogError(context.Background(), "tenant.provision", errors.New("boom"),
			audit.WithTenant("t1"), audit.WithResource("schema", "tenant_x")))

		got := storage.Find("tenant.provision")
		require.Len(t, got, 1)
		assert.Equal(t, audit.ResultError, got[0].Result)
		assert.Equal(t, "boom", got[0].Error)
		assert.Equal(t, "t1", got[0].TenantID)
		assert.Equal(t, "tenant_x", got[0].ResourceID)
	})

	t.Run("action is required", func(t *testing.T) {
		t.Parallel()

		l := audit.NewLogger(audit.NewMemoryStorage())
		assert.ErrorIs(t, l.Log(context.Background(), ""), audit.ErrInvalidEvent)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { audit.NewLogger(nil) })
	})
}

func TestSlogStorage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	l := audit.NewLogger(audit.NewSlogStorage(log))

	require.NoError(t, l.Log(context.Background(), "cache.evict_everywhere", audit.WithScope("global")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	group, ok := rec["audit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cache.evict_everywhere", group["action"])
	assert.Equal(t, "global", group["scope"])
	assert.Equal(t, "success", group["result"])
}
