// Package pg is the PostgreSQL layer for schema-per-tenant applications built on pgx/v5.
//
// All tenants share a single *pgxpool.Pool. Isolation is achieved per checkout:
// [Router] takes a connection from the pool and, before handing it out, sets the
// session search_path to the tenant schema followed by public, verifying that the
// schema exists in the same round trip. A connection that cannot be routed is
// released and the caller receives a [*RoutingError]; there is no silent fallback
// to the public schema.
//
//	pool, err := pg.Connect(ctx, cfg)
//	router := pg.NewRouter(pool)
//
//	// inside a request that went through tenant.Middleware
//	err = router.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, "INSERT INTO projects (name) VALUES ($1)", name)
//	    return err
//	})
//
// Code that owns its own connection (listeners, batch jobs) calls [Route] directly.
//
// The router is built once next to the pool and handed to every tenant-scoped
// repository whose handlers are mounted behind tenant.Middleware:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(tenant.Middleware(resolver, tenant.WithProvider(registry)))
//	    r.Mount("/projects", projects.NewHandler(projects.NewRepository(router)))
//	})
//
// Code that only touches public tables, such as the tenant registry, may use the pool.
//
// # Schemas and migrations
//
// [SchemaAdmin] creates and drops tenant schemas and holds the per-schema advisory
// lock that serialises provisioning attempts. [SchemaMigrator] runs the tenant
// migration set with goose inside one schema, keeping a ledger table per schema so
// that provisioning is idempotent. [Migrate] applies public-schema migrations at startup.
//
// # Configuration
//
// Config is populated from PG_* environment variables via github.com/caarlos0/env.
// Refer to the field tags for exact names and defaults.
//
// # Error Handling
//
// Helpers such as [IsDuplicateKeyError], [IsNotFoundError] and [IsRoutingError]
// classify errors returned by pgx without callers importing pgconn.
package pg
