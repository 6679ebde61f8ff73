package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/provision"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/tenantcache"
)

// TenantStore persists tenant records. Implemented by *Registry.
type TenantStore interface {
	Create(ctx context.Context, t *tenant.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Provisioner manages tenant schemas. Implemented by *provision.Provisioner.
type Provisioner interface {
	Provision(ctx context.Context, tenantID uuid.UUID) (provision.Result, error)
	Deprovision(ctx context.Context, tenantID uuid.UUID) error
	Status(ctx context.Context, tenantID uuid.UUID) (provision.Status, error)
}

// TenantEvictor clears the cache of the tenant bound to ctx. Implemented by *tenantcache.Cache.
type TenantEvictor interface {
	EvictAllForTenant(ctx context.Context) tenantcache.EvictionReport
}

// GlobalEvictor clears every tenant's cache. Implemented by *tenantcache.Admin.
type GlobalEvictor interface {
	EvictEverywhere(ctx context.Context) tenantcache.EvictionReport
}

// CreateTenantInput describes a tenant to register and provision.
// A nil ID is replaced with a random one.
type CreateTenantInput struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
}

// Service ties the tenant registry, schema provisioning and cache together.
type Service struct {
	store TenantStore
	prov  Provisioner
	cache TenantEvictor
	log   *slog.Logger
}

// NewService creates a Service. cache may be nil when no tenant cache is configured.
func NewService(store TenantStore, prov Provisioner, cache TenantEvictor, log *slog.Logger) *Service {
	if store == nil || prov == nil {
		panic("tenancy: store and provisioner are required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, prov: prov, cache: cache, log: log.With(logger.Component("tenancy"))}
}

// CreateTenant registers the tenant and provisions its schema. When provisioning
// fails the registry record is removed again, so a tenant is either fully usable
// or absent.
func (s *Service) CreateTenant(ctx context.Context, in CreateTenantInput) (*tenant.Tenant, provision.Result, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	t := &tenant.Tenant{
		ID:        in.ID,
		Name:      strings.TrimSpace(in.Name),
		Subdomain: strings.ToLower(strings.TrimSpace(in.Subdomain)),
		Active:    true,
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, provision.Result{}, err
	}

	res, err := s.prov.Provision(ctx, t.ID)
	if err != nil {
		if derr := s.store.Delete(context.WithoutCancel(ctx), t.ID); derr != nil {
			s.log.ErrorContext(ctx, "failed to remove tenant record after provisioning failure",
				logger.TenantID(t.ID), logger.Error(derr))
			err = errors.Join(err, ErrCleanupFailed, derr)
		}
		return nil, res, err
	}
	return t, res, nil
}

// TenantStatus returns the registry record with its schema status.
func (s *Service) TenantStatus(ctx context.Context, id uuid.UUID) (*tenant.Tenant, provision.Status, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, provision.Status{}, err
	}
	st, err := s.prov.Status(ctx, id)
	if err != nil {
		return nil, provision.Status{}, err
	}
	return t, st, nil
}

// DeleteTenant drops the tenant schema, evicts its cache entries and removes the record.
func (s *Service) DeleteTenant(ctx context.Context, id uuid.UUID) (tenantcache.EvictionReport, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return tenantcache.EvictionReport{}, err
	}
	if err := s.prov.Deprovision(ctx, id); err != nil {
		return tenantcache.EvictionReport{}, err
	}

	var rep tenantcache.EvictionReport
	if s.cache != nil {
		// Evict under a scope bound to the deleted tenant, not the caller.
		err := tenant.Run(ctx, id.String(), func(ctx context.Context) error {
			rep = s.cache.EvictAllForTenant(ctx)
			return nil
		})
		if err != nil {
			return rep, fmt.Errorf("evict tenant cache: %w", err)
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return rep, err
	}
	s.log.InfoContext(ctx, "tenant deleted", logger.TenantID(id))
	return rep, nil
}
