package jwt

import (
	"slices"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ScopeAdmin grants cross-tenant administrative operations.
const ScopeAdmin = "admin"

// Claims are the token claims understood by tenantkit. TenantID is the tenant the
// subject acts for; Scope is a space-separated list as in RFC 8693.
type Claims struct {
	jwtlib.RegisteredClaims
	TenantID string `json:"tenant_id,omitempty"`
	Scope    string `json:"scope,omitempty"`
}

// Scopes splits the scope claim.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// HasScope reports whether the claims grant scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes(), scope)
}
