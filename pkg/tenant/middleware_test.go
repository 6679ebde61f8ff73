package tenant_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// capture records the context a handler saw so the test can inspect the scope afterwards.
func capture(seen *context.Context, fn func(w http.ResponseWriter, r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.Context()
		if fn != nil {
			fn(w, r)
		}
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewHeaderResolver("")
	id := uuid.MustParse(headerTenant)

	t.Run("binds tenant for the request and clears afterwards", func(t *testing.T) {
		t.Parallel()

		var seen context.Context
		var during uuid.UUID
		h := tenant.Middleware(resolver)(capture(&seen, func(w http.ResponseWriter, r *http.Request) {
			during, _ = tenant.IDFromContext(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(tenant.DefaultHeader, headerTenant)
		rec := serve(h, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, during)
		_, ok := tenant.IDFromContext(seen)
		assert.False(t, ok, "scope must be cleared once the request completes")
	})

	t.Run("clears after handler panic", func(t *testing.T) {
		t.Parallel()

		var seen context.Context
		h := tenant.Middleware(resolver)(capture(&seen, func(http.ResponseWriter, *http.Request) {
			panic("handler bug")
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(tenant.DefaultHeader, headerTenant)
		assert.Panics(t, func() { serve(h, r) })

		require.NotNil(t, seen)
		_, ok := tenant.IDFromContext(seen)
		assert.False(t, ok)
	})

	t.Run("no identifier leaves public target", func(t *testing.T) {
		t.Parallel()

		var target tenant.Target
		h := tenant.Middleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target = tenant.TargetFromContext(r.Context())
		}))

		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, target.IsPublic())
	})

	t.Run("invalid identifier is rejected", func(t *testing.T) {
		t.Parallel()

		called := false
		h := tenant.Middleware(resolver)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(tenant.DefaultHeader, "acme")
		rec := serve(h, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)
	})

	t.Run("skip paths", func(t *testing.T) {
		t.Parallel()

		var target tenant.Target
		h := tenant.Middleware(resolver, tenant.WithSkipPaths("/health"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target = tenant.TargetFromContext(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		r.Header.Set(tenant.DefaultHeader, headerTenant)
		rec := serve(h, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, target.IsPublic())
	})

	t.Run("resolver error goes to error handler", func(t *testing.T) {
		t.Parallel()

		var handled error
		failing := func(*http.Request) (string, error) { return "", errors.New("resolver down") }
		h := tenant.Middleware(failing, tenant.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			handled = err
			w.WriteHeader(http.StatusTeapot)
		}))(http.NotFoundHandler())

		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.EqualError(t, handled, "resolver down")
	})
}

func TestMiddlewareProvider(t *testing.T) {
	t.Parallel()

	active := uuid.MustParse(headerTenant)
	inactive := uuid.MustParse(claimTenant)

	var calls atomic.Int32
	provider := tenant.ProviderFunc(func(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
		calls.Add(1)
		switch id {
		case active:
			return &tenant.Tenant{ID: id, Active: true}, nil
		case inactive:
			return &tenant.Tenant{ID: id, Active: false}, nil
		default:
			return nil, tenant.ErrTenantNotFound
		}
	})

	h := tenant.Middleware(tenant.NewHeaderResolver(""), tenant.WithProvider(provider))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	request := func(id string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(tenant.DefaultHeader, id)
		return serve(h, r)
	}

	assert.Equal(t, http.StatusNoContent, request(active.String()).Code)
	assert.Equal(t, http.StatusNoContent, request(active.String()).Code)
	assert.Equal(t, int32(1), calls.Load(), "lookups are memoised")

	assert.Equal(t, http.StatusForbidden, request(inactive.String()).Code)
	assert.Equal(t, http.StatusNotFound, request(uuid.NewString()).Code)
}

type subdomainProvider struct {
	tenants map[string]*tenant.Tenant
	calls   atomic.Int32
}

func (p *subdomainProvider) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	for _, t := range p.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (p *subdomainProvider) GetBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	p.calls.Add(1)
	if t, ok := p.tenants[subdomain]; ok {
		return t, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func TestMiddlewareSubdomainProvider(t *testing.T) {
	t.Parallel()

	acme := &tenant.Tenant{ID: uuid.MustParse(headerTenant), Subdomain: "acme", Active: true}
	provider := &subdomainProvider{tenants: map[string]*tenant.Tenant{"acme": acme}}

	var bound uuid.UUID
	h := tenant.Middleware(tenant.NewSubdomainResolver(".app.com"), tenant.WithProvider(provider))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bound, _ = tenant.IDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	request := func(host string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = host
		return serve(h, r)
	}

	assert.Equal(t, http.StatusNoContent, request("acme.app.com").Code)
	assert.Equal(t, acme.ID, bound)
	assert.Equal(t, http.StatusNoContent, request("ACME.app.com").Code)
	assert.Equal(t, int32(1), provider.calls.Load(), "subdomain lookups are memoised")

	assert.Equal(t, http.StatusNotFound, request("globex.app.com").Code)
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	h := tenant.Middleware(tenant.NewHeaderResolver(""))(
		tenant.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})),
	)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(tenant.DefaultHeader, headerTenant)
	assert.Equal(t, http.StatusNoContent, serve(h, r).Code)
}
