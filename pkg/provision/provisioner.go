package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Audit actions.
const (
	ActionProvision   = "tenant.provision"
	ActionDeprovision = "tenant.deprovision"
)

// SchemaStore creates and drops schemas. Implemented by pg.SchemaAdmin.
type SchemaStore interface {
	SchemaExists(ctx context.Context, name string) (bool, error)
	// CreateSchema reports created == true only when this call created the schema.
	CreateSchema(ctx context.Context, name string) (created bool, err error)
	DropSchema(ctx context.Context, name string) error
}

// SchemaLocker is optionally implemented by a SchemaStore to serialise attempts on
// one schema across processes. Implemented by pg.SchemaAdmin.
type SchemaLocker interface {
	LockSchema(ctx context.Context, name string) (unlock func(), err error)
}

// Migrator applies the tenant migration set inside a schema. Implemented by pg.SchemaMigrator.
type Migrator interface {
	// Applied returns versions already recorded in the schema's ledger.
	Applied(ctx context.Context, schema string) ([]int64, error)
	// Up applies pending migrations in version order and returns the versions it applied.
	Up(ctx context.Context, schema string) ([]int64, error)
}

// PendingReporter is optionally implemented by a Migrator to report unapplied versions.
type PendingReporter interface {
	Pending(ctx context.Context, schema string) ([]int64, error)
}

// Auditor records administrative actions. Implemented by *audit.Logger.
type Auditor interface {
	Log(ctx context.Context, action string, opts ...audit.EventOption) error
	LogError(ctx context.Context, action string, err error, opts ...audit.EventOption) error
}

// Result is the outcome of one provisioning attempt.
type Result struct {
	TenantID   uuid.UUID
	SchemaName string
	Success    bool
	Err        error
	Applied    []int64 // versions applied by this attempt; empty when the schema was already current
	Duration   time.Duration
}

// Status describes the provisioning state of a tenant schema.
type Status struct {
	TenantID   uuid.UUID
	SchemaName string
	Exists     bool
	Applied    []int64
	Pending    []int64
}

// Provisioner creates tenant schemas and brings them to the current migration version.
// It is safe for concurrent use; attempts for different tenants do not share state.
type Provisioner struct {
	schemas  SchemaStore
	migrator Migrator
	cfg      Config
	log      *slog.Logger
	audit    Auditor
	now      func() time.Time
	locks    *keyedMutex
}

// New creates a Provisioner.
func New(schemas SchemaStore, migrator Migrator, opts ...Option) *Provisioner {
	if schemas == nil || migrator == nil {
		panic("provision: schema store and migrator are required")
	}
	p := &Provisioner{
		schemas:  schemas,
		migrator: migrator,
		cfg:      DefaultConfig(),
		log:      slog.Default(),
		now:      time.Now,
		locks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(logger.Component("provisioner"))
	return p
}

// Provision creates the tenant's schema and applies every pending tenant migration.
// Re-provisioning an existing, current schema succeeds and applies nothing.
// On failure the schema is dropped if this attempt created it, and a *ProvisionError is
// returned; the caller never observes a half-built schema. There are no retries.
// Duration is not bounded: an attempt slower than the slow threshold logs a warning
// and still succeeds. Callers that need a deadline put it on ctx.
func (p *Provisioner) Provision(ctx context.Context, tenantID uuid.UUID) (Result, error) {
	start := p.now()
	schema := tenant.SchemaName(tenantID)
	lc := newLifecycle()

	if tenantID == uuid.Nil {
		err := &ProvisionError{TenantID: tenantID, Schema: schema, Stage: lc.Stage(), Err: ErrInvalidTenant}
		return Result{TenantID: tenantID, SchemaName: schema, Err: err}, err
	}

	log := p.log.With(logger.TenantID(tenantID), logger.Schema(schema))

	// Attempts on one schema are serialised from creation through rollback.
	unlock, err := p.lock(ctx, schema)
	if err != nil {
		return p.rollback(ctx, log, lc, tenantID, schema, false, start, fmt.Errorf("lock schema: %w", err))
	}
	defer unlock()

	owned, err := p.schemas.CreateSchema(ctx, schema)
	if err != nil {
		return p.rollback(ctx, log, lc, tenantID, schema, false, start, fmt.Errorf("create schema: %w", err))
	}
	lc.must(eventSchemaCreated)

	applied, err := p.migrator.Up(ctx, schema)
	if err != nil {
		return p.rollback(ctx, log, lc, tenantID, schema, owned, start, fmt.Errorf("apply migrations: %w", err))
	}
	lc.must(eventMigrated)
	lc.must(eventCommit)

	duration := p.now().Sub(start)
	metrics.ProvisionDuration.WithLabelValues(metrics.ResultCommitted).Observe(duration.Seconds())

	if p.cfg.SlowThreshold > 0 && duration > p.cfg.SlowThreshold {
		log.WarnContext(ctx, "tenant provisioning exceeded threshold",
			logger.Duration(duration),
			slog.Int64("threshold_ms", p.cfg.SlowThreshold.Milliseconds()),
		)
	}
	log.InfoContext(ctx, "tenant provisioned",
		slog.Bool("created", owned),
		slog.Any("applied", applied),
		logger.Duration(duration),
	)
	p.record(ctx, log, func(a Auditor) error {
		return a.Log(ctx, ActionProvision,
			audit.WithTenant(tenantID.String()),
			audit.WithResource("schema", schema),
			audit.WithMetadata("applied", applied),
			audit.WithMetadata("created", owned),
		)
	})

	return Result{
		TenantID:   tenantID,
		SchemaName: schema,
		Success:    true,
		Applied:    slices.Clone(applied),
		Duration:   duration,
	}, nil
}

func (p *Provisioner) rollback(
	ctx context.Context,
	log *slog.Logger,
	lc *lifecycle,
	tenantID uuid.UUID,
	schema string,
	owned bool,
	start time.Time,
	cause error,
) (Result, error) {
	failedAt := lc.Stage()
	lc.must(eventFail)

	var cleanupErr error
	if owned {
		// The attempt may have failed because ctx expired; cleanup still needs a live context.
		timeout := p.cfg.CleanupTimeout
		if timeout <= 0 {
			timeout = DefaultConfig().CleanupTimeout
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		cleanupErr = p.schemas.DropSchema(cctx, schema)
		cancel()
		if cleanupErr != nil {
			log.ErrorContext(ctx, "failed to drop partially provisioned schema",
				logger.Error(cleanupErr),
				slog.String("stage", failedAt.String()),
			)
		}
	}
	lc.must(eventCleanedUp)

	perr := &ProvisionError{
		TenantID:   tenantID,
		Schema:     schema,
		Stage:      failedAt,
		Err:        cause,
		CleanupErr: cleanupErr,
	}

	duration := p.now().Sub(start)
	metrics.ProvisionDuration.WithLabelValues(metrics.ResultRolledBack).Observe(duration.Seconds())
	log.ErrorContext(ctx, "tenant provisioning failed",
		logger.Error(cause),
		slog.String("stage", failedAt.String()),
		slog.Bool("dropped", owned && cleanupErr == nil),
		logger.Duration(duration),
	)
	p.record(ctx, log, func(a Auditor) error {
		return a.LogError(ctx, ActionProvision, perr,
			audit.WithTenant(tenantID.String()),
			audit.WithResource("schema", schema),
			audit.WithMetadata("stage", failedAt.String()),
		)
	})

	return Result{
		TenantID:   tenantID,
		SchemaName: schema,
		Err:        perr,
		Duration:   duration,
	}, perr
}

// Deprovision drops the tenant's schema and all its data. Dropping a missing schema succeeds.
func (p *Provisioner) Deprovision(ctx context.Context, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return ErrInvalidTenant
	}
	schema := tenant.SchemaName(tenantID)
	log := p.log.With(logger.TenantID(tenantID), logger.Schema(schema))

	if err := p.schemas.DropSchema(ctx, schema); err != nil {
		log.ErrorContext(ctx, "tenant deprovisioning failed", logger.Error(err))
		p.record(ctx, log, func(a Auditor) error {
			return a.LogError(ctx, ActionDeprovision, err,
				audit.WithTenant(tenantID.String()), audit.WithResource("schema", schema))
		})
		return fmt.Errorf("deprovision tenant %s: %w", tenantID, err)
	}

	log.InfoContext(ctx, "tenant deprovisioned")
	p.record(ctx, log, func(a Auditor) error {
		return a.Log(ctx, ActionDeprovision,
			audit.WithTenant(tenantID.String()), audit.WithResource("schema", schema))
	})
	return nil
}

// Status reports whether the tenant schema exists and which migrations it has.
func (p *Provisioner) Status(ctx context.Context, tenantID uuid.UUID) (Status, error) {
	if tenantID == uuid.Nil {
		return Status{}, ErrInvalidTenant
	}
	st := Status{TenantID: tenantID, SchemaName: tenant.SchemaName(tenantID)}

	exists, err := p.schemas.SchemaExists(ctx, st.SchemaName)
	if err != nil {
		return st, fmt.Errorf("tenant status: %w", err)
	}
	st.Exists = exists
	if !exists {
		return st, nil
	}

	if st.Applied, err = p.migrator.Applied(ctx, st.SchemaName); err != nil {
		return st, fmt.Errorf("tenant status: %w", err)
	}
	if pr, ok := p.migrator.(PendingReporter); ok {
		if st.Pending, err = pr.Pending(ctx, st.SchemaName); err != nil {
			return st, fmt.Errorf("tenant status: %w", err)
		}
	}
	return st, nil
}

// lock takes the cross-process schema lock when the store offers one, and an
// in-process lock otherwise.
func (p *Provisioner) lock(ctx context.Context, schema string) (func(), error) {
	if l, ok := p.schemas.(SchemaLocker); ok {
		return l.LockSchema(ctx, schema)
	}
	return p.locks.lock(ctx, schema)
}

// IsProvisionError reports whether err came from a failed provisioning attempt.
func IsProvisionError(err error) bool {
	return errors.Is(err, ErrProvisionFailed)
}

func (p *Provisioner) record(ctx context.Context, log *slog.Logger, fn func(Auditor) error) {
	if p.audit == nil {
		return
	}
	if err := fn(p.audit); err != nil {
		log.WarnContext(ctx, "failed to record audit event", logger.Error(err))
	}
}
