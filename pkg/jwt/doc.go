// Package jwt verifies HS256 bearer tokens with github.com/golang-jwt/jwt/v5 and
// exposes the verified claims to downstream handlers.
//
// The tenant_id claim feeds tenant resolution through TenantClaim, which has the
// signature of tenant.ClaimFunc. The scope claim gates administrative routes:
//
//	svc, err := jwt.New(cfg)
//	r.Use(jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{Service: svc, Optional: true}))
//	r.Use(tenant.Middleware(tenant.NewDefaultResolver("", suffix, jwt.TenantClaim)))
//
//	r.With(jwt.RequireScope(jwt.ScopeAdmin)).Delete("/admin/cache", evictAll)
package jwt
