package tenancy_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/modules/tenancy"
	"github.com/dmitrymomot/tenantkit/pkg/provision"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/tenantcache"
)

type memStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]tenant.Tenant
}

func newMemStore() *memStore {
	return &memStore{tenants: make(map[uuid.UUID]tenant.Tenant)}
}

func (s *memStore) Create(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; ok {
		return tenancy.ErrTenantExists
	}
	t.CreatedAt = time.Now()
	s.tenants[t.ID] = *t
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return &t, nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tenants, id)
	return nil
}

func (s *memStore) has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tenants[id]
	return ok
}

type fakeProvisioner struct {
	mu          sync.Mutex
	fail        error
	schemas     map[uuid.UUID]bool
	deprovision []uuid.UUID
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{schemas: make(map[uuid.UUID]bool)}
}

func (p *fakeProvisioner) Provision(_ context.Context, id uuid.UUID) (provision.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := provision.Result{TenantID: id, SchemaName: tenant.SchemaName(id), Duration: 12 * time.Millisecond}
	if p.fail != nil {
		err := &provision.ProvisionError{TenantID: id, Schema: res.SchemaName, Stage: provision.StageSchemaCreated, Err: p.fail}
		res.Err = err
		return res, err
	}
	p.schemas[id] = true
	res.Success = true
	res.Applied = []int64{1, 2}
	return res, nil
}

func (p *fakeProvisioner) Deprovision(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.schemas, id)
	p.deprovision = append(p.deprovision, id)
	return nil
}

func (p *fakeProvisioner) Status(_ context.Context, id uuid.UUID) (provision.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := provision.Status{TenantID: id, SchemaName: tenant.SchemaName(id), Exists: p.schemas[id]}
	if st.Exists {
		st.Applied = []int64{1, 2}
	}
	return st, nil
}

// recordingEvictor remembers which tenant each eviction ran for.
type recordingEvictor struct {
	mu      sync.Mutex
	tenants []uuid.UUID
	global  int
}

func (e *recordingEvictor) EvictAllForTenant(ctx context.Context) tenantcache.EvictionReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, _ := tenant.IDFromContext(ctx)
	e.tenants = append(e.tenants, id)
	return tenantcache.EvictionReport{Patterns: []string{"tenant:" + id.String() + ":*"}, Matched: 3, Deleted: 3}
}

func (e *recordingEvictor) EvictEverywhere(context.Context) tenantcache.EvictionReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.global++
	return tenantcache.EvictionReport{Patterns: []string{"tenant:*", "public:*"}, Matched: 5, Deleted: 4, Failed: 1}
}
