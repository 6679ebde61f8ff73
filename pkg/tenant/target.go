package tenant

import "github.com/google/uuid"

// Target is the routing decision for one unit of work: either the shared
// public schema or exactly one tenant schema. The zero value is Public.
type Target struct {
	id uuid.UUID
}

// Public targets the shared schema only.
func Public() Target {
	return Target{}
}

// ForTenant targets the schema of the given tenant.
// A nil UUID yields Public.
func ForTenant(id uuid.UUID) Target {
	return Target{id: id}
}

// IsPublic reports whether no tenant was resolved.
func (t Target) IsPublic() bool {
	return t.id == uuid.Nil
}

// TenantID returns the tenant id, or false for Public.
func (t Target) TenantID() (uuid.UUID, bool) {
	return t.id, !t.IsPublic()
}

// Schema returns the schema unqualified names resolve to first.
func (t Target) Schema() string {
	if t.IsPublic() {
		return PublicSchema
	}
	return SchemaName(t.id)
}

// SearchPath returns the ordered schema list for a session: the tenant schema
// followed by public, or public alone.
func (t Target) SearchPath() []string {
	if t.IsPublic() {
		return []string{PublicSchema}
	}
	return []string{SchemaName(t.id), PublicSchema}
}

func (t Target) String() string {
	if t.IsPublic() {
		return "public"
	}
	return "tenant(" + t.Schema() + ")"
}
