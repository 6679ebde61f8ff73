// Package tenant carries the tenant of a unit of work and maps it to a database schema.
//
// Every inbound request gets its own Scope, stored in the request context. The
// Middleware resolves the tenant identifier (header, verified token claim or
// subdomain, in that priority), binds it to the scope and clears the scope when
// the request finishes, even if a handler panics. Code further down reads the
// routing decision with TargetFromContext and never names a schema itself.
//
// # Schema naming
//
// A tenant UUID maps to "tenant_" followed by its 32 lowercase hex digits:
//
//	tenant.SchemaName(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
//	// tenant_11111111111111111111111111111111
//
// The shared schema is "public". Target is the explicit routing value: Public()
// or ForTenant(id), and its SearchPath is [tenant schema, public] or [public].
//
// # Usage
//
//	resolver := tenant.NewDefaultResolver("X-Tenant-ID", ".app.com", claimFromJWT)
//	router.Use(tenant.Middleware(resolver,
//		tenant.WithSkipPaths("/health", "/metrics"),
//		tenant.WithProvider(registry),
//	))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		target := tenant.TargetFromContext(r.Context())
//		// hand ctx to the data layer; pg.Router routes connections from it
//	}
//
// Out-of-band work runs through Run, which gives the function its own scope and
// clears it on return:
//
//	err := tenant.Run(ctx, id, func(ctx context.Context) error {
//		return job(ctx)
//	})
//
// # Errors
//
//   - ErrBlankTenant: an empty identifier was bound; treated as a programming error
//   - ErrInvalidIdentifier: the identifier is not a UUID or not a DNS-safe label
//   - ErrTenantAlreadySet: a scope was asked to carry a second tenant
//   - ErrTenantNotFound, ErrInactiveTenant: registry checks (WithProvider)
//   - ErrNoTenantInContext: RequireTenant found no tenant
package tenant
