// Package audit records administrative actions (tenant provisioning, global cache
// eviction) as structured events.
//
// A Logger builds events, filling tenant, actor and request identifiers through
// context extractors, and hands them to a pluggable Storage. Two storages ship with
// the package: SlogStorage writes events into the application log and MemoryStorage
// keeps them in memory.
//
//	auditor := audit.NewLogger(audit.NewSlogStorage(log),
//	    audit.WithTenantIDExtractor(tenantIDFromContext),
//	    audit.WithRequestIDExtractor(requestIDFromContext),
//	)
//
//	_ = auditor.Log(ctx, "tenant.provision",
//	    audit.WithResource("schema", schema),
//	    audit.WithMetadata("applied", applied),
//	)
package audit
