package pg

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// execQuerier is the subset of *pgxpool.Pool used for schema DDL.
type execQuerier interface {
	RowQuerier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// SchemaAdmin runs schema-level DDL. Each statement is its own transaction
// and never touches the search_path of pooled connections.
type SchemaAdmin struct {
	db execQuerier
}

// NewSchemaAdmin creates a SchemaAdmin on top of a pool.
func NewSchemaAdmin(db execQuerier) *SchemaAdmin {
	return &SchemaAdmin{db: db}
}

// SchemaExists reports whether a schema with the given name exists.
func (a *SchemaAdmin) SchemaExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := a.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_namespace WHERE nspname = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check schema %q: %w", name, err)
	}
	return exists, nil
}

// CreateSchema creates a tenant schema. created is true only when this call
// created it; a schema that already exists, or that a concurrent caller created
// first, yields created == false and no error.
func (a *SchemaAdmin) CreateSchema(ctx context.Context, name string) (created bool, err error) {
	if !tenant.IsTenantSchema(name) {
		return false, fmt.Errorf("%w: %q", ErrUnsafeSchema, name)
	}
	_, err = a.db.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{name}.Sanitize())
	switch {
	case err == nil:
		return true, nil
	case IsDuplicateSchemaError(err), IsDuplicateKeyError(err):
		return false, nil
	default:
		return false, fmt.Errorf("create schema %q: %w", name, err)
	}
}

// LockSchema blocks until it holds a session advisory lock for name, on a
// connection reserved for the lock. Callers on the same schema serialise across
// processes until unlock is called. Cancelling ctx abandons the wait.
func (a *SchemaAdmin) LockSchema(ctx context.Context, name string) (unlock func(), err error) {
	if !tenant.IsTenantSchema(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnsafeSchema, name)
	}
	conn, err := a.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock schema %q: %w", name, err)
	}

	key := provisionLockID(name)
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		// A cancelled wait may leave the lock request in flight; never reuse that session.
		_ = conn.Hijack().Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("lock schema %q: %w", name, err)
	}

	return func() {
		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, err := conn.Exec(uctx, "SELECT pg_advisory_unlock($1)", key); err != nil {
			// Closing the session releases its advisory locks.
			_ = conn.Hijack().Close(uctx)
			return
		}
		conn.Release()
	}, nil
}

// DropSchema drops a tenant schema and everything in it. Dropping a missing schema is not an error.
func (a *SchemaAdmin) DropSchema(ctx context.Context, name string) error {
	if !tenant.IsTenantSchema(name) {
		return fmt.Errorf("%w: %q", ErrUnsafeSchema, name)
	}
	if _, err := a.db.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{name}.Sanitize()+" CASCADE"); err != nil {
		return fmt.Errorf("drop schema %q: %w", name, err)
	}
	return nil
}

// TenantSchemas lists every tenant schema in the database, sorted by name.
func (a *SchemaAdmin) TenantSchemas(ctx context.Context) ([]string, error) {
	rows, err := a.db.Query(ctx,
		`SELECT nspname FROM pg_catalog.pg_namespace WHERE starts_with(nspname, $1) ORDER BY nspname`,
		tenant.SchemaPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("list tenant schemas: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list tenant schemas: %w", err)
	}

	out := names[:0]
	for _, n := range names {
		if tenant.IsTenantSchema(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// provisionLockID keys the lock held for a whole provisioning attempt. It differs
// from schemaLockID, which the migrator takes on its own connection inside the attempt.
func provisionLockID(schema string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("provision:" + schema))
	return int64(h.Sum64())
}
