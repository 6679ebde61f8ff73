package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tenantkit/pkg/cache"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// Middleware is the request boundary: it gives every request a fresh Scope,
// binds the resolved tenant before calling next and clears the scope after next
// returns. The clear is deferred around the whole downstream chain, so it also
// runs when a handler panics.
func Middleware(resolver Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler:  defaultErrorHandler,
		providerTTL:   5 * time.Minute,
		providerSize:  1000,
		requireActive: true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var lookup *registryLookup
	if cfg.provider != nil {
		lookup = &registryLookup{
			provider: cfg.provider,
			cache:    cache.NewLRU[uuid.UUID, *Tenant](cfg.providerSize),
			ttl:      cfg.providerTTL,
		}
		if sp, ok := cfg.provider.(SubdomainProvider); ok {
			lookup.subdomains = sp
			lookup.bySub = cache.NewLRU[string, *Tenant](cfg.providerSize)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := NewScope()
			defer scope.Clear()

			ctx := WithScope(r.Context(), scope)
			r = r.WithContext(ctx)

			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolver(r)
			if err != nil {
				cfg.logger.WarnContext(ctx, "tenant resolution failed", logger.Error(err))
				cfg.errorHandler(w, r, err)
				return
			}
			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := ParseID(identifier)
			var t *Tenant
			switch {
			case err == nil && lookup != nil:
				t, err = lookup.get(ctx, id)
			case errors.Is(err, ErrInvalidIdentifier) && lookup.resolvesSubdomains():
				if t, err = lookup.bySubdomain(ctx, identifier); err == nil {
					id = t.ID
				}
			}
			if err != nil {
				if lookup != nil && !isClientError(err) {
					cfg.logger.ErrorContext(ctx, "tenant lookup failed", slog.String("identifier", identifier), logger.Error(err))
				}
				cfg.errorHandler(w, r, err)
				return
			}
			if t != nil && cfg.requireActive && !t.Active {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}

			if err := scope.SetID(id); err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant rejects requests whose scope carries no tenant.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IDFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// registryLookup memoises Provider results and collapses concurrent lookups of the same tenant.
type registryLookup struct {
	provider   Provider
	subdomains SubdomainProvider
	cache      *cache.LRU[uuid.UUID, *Tenant]
	bySub      *cache.LRU[string, *Tenant]
	ttl        time.Duration
	group      singleflight.Group
}

func (l *registryLookup) resolvesSubdomains() bool {
	return l != nil && l.subdomains != nil
}

func (l *registryLookup) get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	if t, ok := l.cache.Get(id); ok {
		return t, nil
	}

	v, err, _ := l.group.Do(id.String(), func() (any, error) {
		t, err := l.provider.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, ErrTenantNotFound
		}
		l.cache.Set(id, t, l.ttl)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tenant), nil
}

func (l *registryLookup) bySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	subdomain = strings.ToLower(subdomain)
	if t, ok := l.bySub.Get(subdomain); ok {
		return t, nil
	}

	v, err, _ := l.group.Do("subdomain:"+subdomain, func() (any, error) {
		t, err := l.subdomains.GetBySubdomain(ctx, subdomain)
		if err != nil {
			return nil, err
		}
		if t == nil || t.ID == uuid.Nil {
			return nil, ErrTenantNotFound
		}
		l.bySub.Set(subdomain, t, l.ttl)
		l.cache.Set(t.ID, t, l.ttl)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tenant), nil
}

func isClientError(err error) bool {
	return errors.Is(err, ErrTenantNotFound) || errors.Is(err, ErrInvalidIdentifier) || errors.Is(err, ErrBlankTenant)
}
