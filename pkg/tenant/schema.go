package tenant

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// PublicSchema is the shared schema holding the tenant registry and lookup tables.
	PublicSchema = "public"

	// SchemaPrefix starts every tenant schema name.
	SchemaPrefix = "tenant_"

	schemaNameLength = len(SchemaPrefix) + 32
)

// SchemaName maps a tenant id to its schema: "tenant_" followed by the
// 32 lowercase hex digits of the UUID without separators.
// It is cheap and must be recomputed on every use, never cached across tenants.
func SchemaName(id uuid.UUID) string {
	var buf [schemaNameLength]byte
	copy(buf[:], SchemaPrefix)
	hex.Encode(buf[len(SchemaPrefix):], id[:])
	return string(buf[:])
}

// IsTenantSchema reports whether name has the shape produced by SchemaName.
func IsTenantSchema(name string) bool {
	if len(name) != schemaNameLength || !strings.HasPrefix(name, SchemaPrefix) {
		return false
	}
	for _, c := range name[len(SchemaPrefix):] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ParseID parses a tenant identifier in canonical UUID form.
// Blank input yields ErrBlankTenant, anything else that is not a UUID yields ErrInvalidIdentifier.
func ParseID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, ErrBlankTenant
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	if id == uuid.Nil {
		return uuid.Nil, ErrBlankTenant
	}
	return id, nil
}
