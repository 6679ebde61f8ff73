package tenantcache

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
)

// ActionEvictEverywhere is the audit action recorded for a global eviction.
const ActionEvictEverywhere = "cache.evict_everywhere"

// Admin performs cross-tenant cache operations. It is a separate type from Cache so
// that tenant-scoped code paths, which only hold a *Cache, cannot reach it.
type Admin struct {
	evictor
	ns *Namespace
}

// NewAdmin creates an administrative handle over the same backend and namespace as a Cache.
func NewAdmin(backend Backend, ns *Namespace, opts ...Option) *Admin {
	if backend == nil || ns == nil {
		panic("tenantcache: backend and namespace are required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.With(logger.Component("tenantcache.admin"))
	return &Admin{evictor: evictor{backend: backend, opts: o}, ns: ns}
}

// EvictEverywhere removes every entry written through the namespace, for all tenants
// and the public segment. The action is logged with scope=global and audited.
func (a *Admin) EvictEverywhere(ctx context.Context) EvictionReport {
	var rep EvictionReport
	for _, pattern := range a.ns.globalPatterns() {
		rep.merge(a.evictPattern(ctx, metrics.ScopeGlobal, pattern))
	}

	a.logReport(ctx, slog.LevelWarn, "cache evicted everywhere", metrics.ScopeGlobal, rep)

	if a.opts.audit != nil {
		result := audit.ResultSuccess
		if !rep.OK() {
			result = audit.ResultFailure
		}
		err := a.opts.audit.Log(ctx, ActionEvictEverywhere,
			audit.WithScope(metrics.ScopeGlobal),
			audit.WithResult(result),
			audit.WithMetadata("matched", rep.Matched),
			audit.WithMetadata("deleted", rep.Deleted),
			audit.WithMetadata("failed", rep.Failed),
		)
		if err != nil {
			a.opts.log.WarnContext(ctx, "failed to record audit event", logger.Error(err))
		}
	}
	return rep
}
