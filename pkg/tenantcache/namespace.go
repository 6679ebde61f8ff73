package tenantcache

import (
	"context"
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

const (
	separator     = ":"
	tenantSegment = "tenant"
	publicSegment = "public"
	wildcard      = "*"
	allCaches     = "*"
)

// componentEscaper keeps ':' out of key components. '%' is escaped first.
var componentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// globEscaper quotes Redis glob metacharacters so literal key text never widens a pattern.
var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// Namespace derives tenant-qualified cache keys:
//
//	[prefix:]{tenant:<uuid>|public}:<cacheName>:<parts joined by ':'>
//
// The tenant is read from ctx on every call, never at construction.
type Namespace struct {
	prefix string
}

// NewNamespace creates a namespace. An empty prefix yields keys starting with the tenant segment.
func NewNamespace(prefix string) *Namespace {
	return &Namespace{prefix: strings.TrimSuffix(prefix, separator)}
}

// Prefix returns the configured prefix without the trailing separator.
func (n *Namespace) Prefix() string {
	return n.prefix
}

// Key builds the key for one cache entry of the tenant bound to ctx.
func (n *Namespace) Key(ctx context.Context, cacheName string, parts ...string) string {
	var b strings.Builder
	b.WriteString(n.owner(ctx))
	b.WriteString(separator)
	b.WriteString(componentEscaper.Replace(cacheName))
	b.WriteString(separator)
	for i, p := range parts {
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(componentEscaper.Replace(p))
	}
	return b.String()
}

// Pattern builds a glob matching every key of cacheName for the tenant bound to ctx.
// Pattern(ctx, "*") matches everything the tenant owns.
func (n *Namespace) Pattern(ctx context.Context, cacheName string) string {
	base := globEscaper.Replace(n.owner(ctx)) + separator
	if cacheName == allCaches {
		return base + wildcard
	}
	return base + globEscaper.Replace(componentEscaper.Replace(cacheName)) + separator + wildcard
}

// globalPatterns match every key written through this namespace, across all tenants.
func (n *Namespace) globalPatterns() []string {
	base := ""
	if n.prefix != "" {
		base = globEscaper.Replace(n.prefix) + separator
	}
	return []string{
		base + tenantSegment + separator + wildcard,
		base + publicSegment + separator + wildcard,
	}
}

// owner renders "[prefix:]tenant:<uuid>" or "[prefix:]public".
func (n *Namespace) owner(ctx context.Context) string {
	var b strings.Builder
	if n.prefix != "" {
		b.WriteString(n.prefix)
		b.WriteString(separator)
	}
	if id, ok := tenant.IDFromContext(ctx); ok {
		b.WriteString(tenantSegment)
		b.WriteString(separator)
		b.WriteString(id.String())
	} else {
		b.WriteString(publicSegment)
	}
	return b.String()
}
