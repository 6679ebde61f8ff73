//go:build integration

package pg_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/internal/pgtest"
	"github.com/dmitrymomot/tenantkit/migrations"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func provisionSchema(t *testing.T, pool *pgxpool.Pool, m *pg.SchemaMigrator, id uuid.UUID) string {
	t.Helper()
	ctx := context.Background()
	schema := tenant.SchemaName(id)

	_, err := pg.NewSchemaAdmin(pool).CreateSchema(ctx, schema)
	require.NoError(t, err)
	_, err = m.Up(ctx, schema)
	require.NoError(t, err)
	return schema
}

func TestIntegration(t *testing.T) {
	pool, _ := pgtest.Pool(t)
	ctx := context.Background()

	require.NoError(t, pg.Migrate(ctx, pool, pg.Config{}, migrations.Public(), nil))

	admin := pg.NewSchemaAdmin(pool)
	migrator := pg.NewSchemaMigrator(pool.Config().ConnConfig, migrations.Tenant())
	router := pg.NewRouter(pool)

	a, b := uuid.New(), uuid.New()
	provisionSchema(t, pool, migrator, a)
	provisionSchema(t, pool, migrator, b)

	t.Run("migrator is idempotent", func(t *testing.T) {
		schema := tenant.SchemaName(a)

		applied, err := migrator.Applied(ctx, schema)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, applied)

		again, err := migrator.Up(ctx, schema)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("routing isolates tenants", func(t *testing.T) {
		for id, name := range map[uuid.UUID]string{a: "alpha", b: "beta"} {
			ctxT, err := tenant.WithTenant(ctx, id)
			require.NoError(t, err)
			_, err = router.Exec(ctxT, "INSERT INTO projects (name) VALUES ($1)", name)
			require.NoError(t, err)
		}

		ctxA, err := tenant.WithTenant(ctx, a)
		require.NoError(t, err)

		rows, err := router.Query(ctxA, "SELECT name FROM projects ORDER BY id")
		require.NoError(t, err)
		names, err := pgx.CollectRows(rows, pgx.RowTo[string])
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha"}, names)
	})

	t.Run("public target sees only public", func(t *testing.T) {
		err := router.WithConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
			var current string
			if err := conn.QueryRow(ctx, "SELECT current_schema()").Scan(&current); err != nil {
				return err
			}
			assert.Equal(t, "public", current)
			_, err := conn.Exec(ctx, "SELECT 1 FROM projects")
			assert.Error(t, err)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("missing schema fails without fallback", func(t *testing.T) {
		ctxX, err := tenant.WithTenant(ctx, uuid.New())
		require.NoError(t, err)

		_, err = router.Acquire(ctxX)
		require.Error(t, err)
		assert.ErrorIs(t, err, pg.ErrSchemaNotFound)

		var n int
		err = router.QueryRow(ctxX, "SELECT 1").Scan(&n)
		assert.ErrorIs(t, err, pg.ErrRouting)
	})

	t.Run("pooled connection is rerouted on every checkout", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 40 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := a
				if i%2 == 1 {
					id = b
				}
				ctxT, err := tenant.WithTenant(ctx, id)
				if !assert.NoError(t, err) {
					return
				}
				var current string
				err = router.QueryRow(ctxT, "SELECT current_schema()").Scan(&current)
				if assert.NoError(t, err) {
					assert.Equal(t, tenant.SchemaName(id), current)
				}
			}(i)
		}
		wg.Wait()
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		ctxB, err := tenant.WithTenant(ctx, b)
		require.NoError(t, err)

		err = router.WithTx(ctxB, func(ctx context.Context, tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, "INSERT INTO projects (name) VALUES ('ghost')"); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		var n int
		require.NoError(t, router.QueryRow(ctxB, "SELECT count(*) FROM projects WHERE name = 'ghost'").Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("schema admin", func(t *testing.T) {
		id := uuid.New()
		schema := tenant.SchemaName(id)

		exists, err := admin.SchemaExists(ctx, schema)
		require.NoError(t, err)
		assert.False(t, exists)

		created, err := admin.CreateSchema(ctx, schema)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = admin.CreateSchema(ctx, schema)
		require.NoError(t, err)
		assert.False(t, created, "an existing schema is never reported as created")

		schemas, err := admin.TenantSchemas(ctx)
		require.NoError(t, err)
		assert.Contains(t, schemas, schema)

		require.NoError(t, admin.DropSchema(ctx, schema))
		require.NoError(t, admin.DropSchema(ctx, schema))

		assert.ErrorIs(t, admin.DropSchema(ctx, "public"), pg.ErrUnsafeSchema)
	})

	t.Run("schema lock serialises holders", func(t *testing.T) {
		schema := tenant.SchemaName(uuid.New())

		unlock, err := admin.LockSchema(ctx, schema)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		_, err = admin.LockSchema(waitCtx, schema)
		require.Error(t, err, "a second holder must wait while the lock is held")

		other, err := admin.LockSchema(ctx, tenant.SchemaName(uuid.New()))
		require.NoError(t, err, "different schemas do not contend")
		other()

		unlock()
		again, err := admin.LockSchema(ctx, schema)
		require.NoError(t, err)
		again()
	})
}
