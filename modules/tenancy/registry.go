package tenancy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// DB is the subset of *pgxpool.Pool and *pg.Router the registry needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Registry stores tenant records in public.tenants. It implements tenant.Provider.
type Registry struct {
	db DB
}

// NewRegistry creates a Registry. Queries qualify the table with the public
// schema, so db may be a routed connection.
func NewRegistry(db DB) *Registry {
	return &Registry{db: db}
}

const insertTenant = `
INSERT INTO public.tenants (id, subdomain, name, active)
VALUES ($1, NULLIF($2, ''), $3, $4)
RETURNING created_at`

// Create inserts t and fills CreatedAt. It returns ErrTenantExists when the id
// or subdomain is taken.
func (r *Registry) Create(ctx context.Context, t *tenant.Tenant) error {
	err := r.db.QueryRow(ctx, insertTenant, t.ID, t.Subdomain, t.Name, t.Active).Scan(&t.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrTenantExists
		}
		return fmt.Errorf("insert tenant %s: %w", t.ID, err)
	}
	return nil
}

const selectTenant = `
SELECT id, COALESCE(subdomain, ''), name, active, created_at
FROM public.tenants
WHERE id = $1`

// GetByID returns tenant.ErrTenantNotFound when no record exists.
func (r *Registry) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := r.db.QueryRow(ctx, selectTenant, id).Scan(&t.ID, &t.Subdomain, &t.Name, &t.Active, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return &t, nil
}

const selectTenantBySubdomain = `
SELECT id, subdomain, name, active, created_at
FROM public.tenants
WHERE subdomain = $1`

// GetBySubdomain implements tenant.SubdomainProvider.
func (r *Registry) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := r.db.QueryRow(ctx, selectTenantBySubdomain, subdomain).Scan(&t.ID, &t.Subdomain, &t.Name, &t.Active, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by subdomain %q: %w", subdomain, err)
	}
	return &t, nil
}

// Delete removes the record. Deleting a missing record succeeds.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM public.tenants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tenant %s: %w", id, err)
	}
	return nil
}
