// Package provision creates isolated PostgreSQL schemas for new tenants.
//
// Provisioning walks a fixed lifecycle:
//
//	not_started -> schema_created -> migrations_applied -> committed
//	any failure -> rolling_back -> dropped
//
// Attempts on the same schema are serialised by a lock held from creation through
// rollback (a Postgres advisory lock when the store is pg.SchemaAdmin). The schema is
// created with CREATE SCHEMA and migrated through a ledger kept inside the schema, so
// provisioning the same tenant twice is a no-op. When any step fails the schema is
// dropped again (only if this attempt's CREATE SCHEMA created it)
// and a *ProvisionError carrying the root cause is returned. A failed drop is logged
// and attached as CleanupErr without hiding the root cause.
//
//	p := provision.New(pg.NewSchemaAdmin(pool), pg.NewSchemaMigrator(pool.Config().ConnConfig, migrations.Tenant()),
//	    provision.WithLogger(log),
//	    provision.WithAuditor(auditor),
//	)
//	res, err := p.Provision(ctx, tenantID)
//
// Attempts slower than Config.SlowThreshold log a warning but still succeed.
// Nothing is retried automatically.
package provision
