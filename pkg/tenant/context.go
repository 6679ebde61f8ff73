package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithScope attaches a scope to the context.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, scope)
}

// ScopeFromContext returns the scope attached to ctx.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	scope, ok := ctx.Value(contextKey{}).(*Scope)
	return scope, ok && scope != nil
}

// IDFromContext returns the tenant id bound to the context's scope.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	scope, ok := ScopeFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return scope.Get()
}

// TargetFromContext resolves the routing decision for ctx.
// A context without a scope, or with an empty one, targets the public schema.
func TargetFromContext(ctx context.Context) Target {
	scope, ok := ScopeFromContext(ctx)
	if !ok {
		return Public()
	}
	return scope.Target()
}

// WithTenant returns a context carrying a fresh scope bound to id.
// Use it for out-of-band work (jobs, provisioning follow-ups) where no request scope exists.
func WithTenant(ctx context.Context, id uuid.UUID) (context.Context, error) {
	scope := NewScope()
	if err := scope.SetID(id); err != nil {
		return ctx, err
	}
	return WithScope(ctx, scope), nil
}

// Detach returns a context with a fresh empty scope. A child unit of work that
// serves a different tenant must start from a detached context so it never
// inherits the parent's tenant.
func Detach(ctx context.Context) context.Context {
	return WithScope(ctx, NewScope())
}

// Run executes fn as one unit of work for tenant id. The scope is cleared when fn
// returns, including when it fails or panics.
func Run(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	scope := NewScope()
	defer scope.Clear()

	if err := scope.Set(id); err != nil {
		return err
	}
	return fn(WithScope(ctx, scope))
}

// LoggerExtractor returns a ContextExtractor for the logger that adds tenant_id and schema.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := IDFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.Group("tenant",
			slog.String("id", id.String()),
			slog.String("schema", SchemaName(id)),
		), true
	}
}
