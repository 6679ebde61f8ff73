// Command tenantd serves the tenant administration API: registering and
// provisioning schema-per-tenant PostgreSQL tenants, reporting schema status,
// deleting tenants and evicting tenant-scoped cache entries.
//
// Configuration comes from the environment (and a .env file when present):
//
//	APP_ENV               - development, staging or production (default: development)
//	HTTP_ADDR             - listen address (default: :8080)
//	PG_CONN_URL           - PostgreSQL connection string (required)
//	JWT_SECRET            - HS256 signing key (required)
//	TENANT_HEADER         - header carrying the tenant id (default: X-Tenant-ID)
//	TENANT_DOMAIN_SUFFIX  - base domain for subdomain resolution (optional)
//	CACHE_BACKEND         - redis or memory (default: redis)
//	CACHE_PREFIX          - prefix for every cache key (default: tenantkit)
//	REDIS_URL             - Redis connection URL when CACHE_BACKEND=redis
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/tenantkit/migrations"
	"github.com/dmitrymomot/tenantkit/modules/tenancy"
	"github.com/dmitrymomot/tenantkit/pkg/audit"
	"github.com/dmitrymomot/tenantkit/pkg/cache"
	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/jwt"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/provision"
	"github.com/dmitrymomot/tenantkit/pkg/redis"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/tenantcache"
)

type appConfig struct {
	Env              string        `env:"APP_ENV" envDefault:"development"`
	TenantHeader     string        `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`
	DomainSuffix     string        `env:"TENANT_DOMAIN_SUFFIX"`
	CacheBackend     string        `env:"CACHE_BACKEND" envDefault:"redis"`
	CachePrefix      string        `env:"CACHE_PREFIX" envDefault:"tenantkit"`
	CacheTTL         time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	MemoryCacheSize  int           `env:"CACHE_MEMORY_SIZE" envDefault:"10000"`
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"2s"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("tenantd failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		app     appConfig
		httpCfg httpserver.Config
		pgCfg   pg.Config
		provCfg provision.Config
		jwtCfg  jwt.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&app) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&pgCfg) },
		func() error { return config.Load(&provCfg) },
		func() error { return config.Load(&jwtCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log := logger.New(
		logger.WithEnvironment(app.Env, "tenantd"),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	if err := pg.Migrate(ctx, pool, pgCfg, migrations.Public(), log); err != nil {
		pool.Close()
		return fmt.Errorf("public migrations: %w", err)
	}

	backend, closeBackend, checks, err := newCacheBackend(ctx, app, log)
	if err != nil {
		pool.Close()
		return err
	}
	checks = append([]httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}, checks...)

	auditor := audit.NewLogger(audit.NewSlogStorage(log),
		audit.WithTenantIDExtractor(tenantIDString),
		audit.WithActorIDExtractor(jwt.Subject),
		audit.WithRequestIDExtractor(requestID),
	)

	tenantFS := migrations.Tenant()
	if pgCfg.TenantMigrationsPath != "" {
		tenantFS = os.DirFS(pgCfg.TenantMigrationsPath)
	}
	provisioner := provision.New(
		pg.NewSchemaAdmin(pool),
		pg.NewSchemaMigrator(pool.Config().ConnConfig, tenantFS,
			pg.WithMigrationsTable(pgCfg.TenantMigrationsTable),
			pg.WithMigratorLogger(log),
		),
		provision.WithConfig(provCfg),
		provision.WithLogger(log),
		provision.WithAuditor(auditor),
	)

	ns := tenantcache.NewNamespace(app.CachePrefix)
	cacheOpts := []tenantcache.Option{
		tenantcache.WithLogger(log),
		tenantcache.WithDefaultTTL(app.CacheTTL),
		tenantcache.WithAuditor(auditor),
	}
	tenantCache := tenantcache.New(backend, ns, cacheOpts...)
	cacheAdmin := tenantcache.NewAdmin(backend, ns, cacheOpts...)

	jwtSvc, err := jwt.New(jwtCfg)
	if err != nil {
		pool.Close()
		closeBackend()
		return fmt.Errorf("jwt: %w", err)
	}

	// The registry reads public.tenants only. Tenant-scoped repositories mounted
	// under the tenant middleware below take pg.NewRouter(pool) instead.
	registry := tenancy.NewRegistry(pool)
	api := tenancy.NewHandler(
		tenancy.NewService(registry, provisioner, tenantCache, log),
		tenantCache,
		cacheAdmin,
		log,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, metrics.Middleware)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, app.ReadinessTimeout, checks...))
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{Service: jwtSvc, Optional: true}))
		r.Use(tenant.Middleware(
			tenant.NewDefaultResolver(app.TenantHeader, app.DomainSuffix, jwt.TenantClaim),
			tenant.WithProvider(registry),
			tenant.WithLogger(log),
		))
		r.Mount("/", api.Routes(jwt.RequireScope(jwt.ScopeAdmin)))
	})

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithOnShutdown(pool.Close),
		httpserver.WithOnShutdown(closeBackend),
	)
	return srv.Run(ctx, r)
}

// newCacheBackend returns the shared cache store, its close func and its readiness checks.
func newCacheBackend(ctx context.Context, app appConfig, log *slog.Logger) (tenantcache.Backend, func(), []httpserver.Check, error) {
	switch app.CacheBackend {
	case "memory":
		log.InfoContext(ctx, "cache backend enabled", slog.String("type", "memory"), slog.Int("size", app.MemoryCacheSize))
		return cache.NewMemory(app.MemoryCacheSize), func() {}, nil, nil
	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, nil, nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		storage := redis.NewStorageWithConfig(client, cfg)
		closeFn := func() {
			if err := storage.Close(); err != nil {
				log.Error("failed to close redis client", logger.Error(err))
			}
		}
		log.InfoContext(ctx, "cache backend enabled", slog.String("type", "redis"))
		return storage, closeFn, []httpserver.Check{{Name: "redis", Fn: redis.Healthcheck(client)}}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown CACHE_BACKEND %q", app.CacheBackend)
	}
}

func tenantIDString(ctx context.Context) (string, bool) {
	id, ok := tenant.IDFromContext(ctx)
	if !ok {
		return "", false
	}
	return id.String(), true
}

func requestID(ctx context.Context) (string, bool) {
	id := middleware.GetReqID(ctx)
	return id, id != ""
}
