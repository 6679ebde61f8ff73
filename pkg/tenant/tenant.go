package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is the registry record of a tenant as seen by the request boundary.
// Only ID is required for routing; the rest is used by optional existence checks.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Subdomain string    `json:"subdomain"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Schema returns the schema that holds the tenant's data.
func (t *Tenant) Schema() string {
	return SchemaName(t.ID)
}

// Provider loads tenant records from the shared registry.
// It is consulted by the middleware only when configured with WithProvider.
type Provider interface {
	// GetByID returns ErrTenantNotFound if no tenant has the given id.
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}

// SubdomainProvider is optionally implemented by a Provider. When present, the
// middleware treats a resolved identifier that is not a UUID as a subdomain.
type SubdomainProvider interface {
	// GetBySubdomain returns ErrTenantNotFound if no tenant owns the subdomain.
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
}

// ProviderFunc adapts an ordinary function to the Provider interface.
type ProviderFunc func(ctx context.Context, id uuid.UUID) (*Tenant, error)

// GetByID calls f.
func (f ProviderFunc) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return f(ctx, id)
}
