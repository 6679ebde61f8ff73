package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/pressly/goose/v3/lock"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// SchemaMigrator applies the tenant migration set inside one tenant schema at a time.
// Every schema keeps its own goose ledger, so re-running Up is a no-op and a half-provisioned
// schema picks up where it stopped.
type SchemaMigrator struct {
	connConfig *pgx.ConnConfig
	fsys       fs.FS
	table      string
	sessionLk  bool
	log        *slog.Logger
}

// SchemaMigratorOption configures a SchemaMigrator.
type SchemaMigratorOption func(*SchemaMigrator)

// WithMigrationsTable overrides the per-schema ledger table name.
func WithMigrationsTable(table string) SchemaMigratorOption {
	return func(m *SchemaMigrator) {
		if table != "" {
			m.table = table
		}
	}
}

// WithoutSessionLock disables the per-schema advisory lock taken while migrating.
func WithoutSessionLock() SchemaMigratorOption {
	return func(m *SchemaMigrator) {
		m.sessionLk = false
	}
}

// WithMigratorLogger sets the logger used to report applied migrations.
func WithMigratorLogger(l *slog.Logger) SchemaMigratorOption {
	return func(m *SchemaMigrator) {
		if l != nil {
			m.log = l
		}
	}
}

// NewSchemaMigrator builds a migrator that opens short-lived connections with the same
// settings as connConfig (typically pool.Config().ConnConfig) and reads migrations from fsys.
func NewSchemaMigrator(connConfig *pgx.ConnConfig, fsys fs.FS, opts ...SchemaMigratorOption) *SchemaMigrator {
	if connConfig == nil {
		panic("pg: schema migrator requires a connection config")
	}
	if fsys == nil {
		panic("pg: schema migrator requires a migrations filesystem")
	}
	m := &SchemaMigrator{
		connConfig: connConfig,
		fsys:       fsys,
		table:      "tenant_schema_migrations",
		sessionLk:  true,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("pg.migrator"))
	return m
}

// Applied returns the versions already recorded in the schema's ledger, ascending.
// A schema that does not exist has nothing applied.
func (m *SchemaMigrator) Applied(ctx context.Context, schema string) ([]int64, error) {
	var versions []int64
	err := m.withProvider(ctx, schema, func(p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			if s.State == goose.StateApplied {
				versions = append(versions, s.Source.Version)
			}
		}
		return nil
	})
	if errors.Is(err, goose.ErrNoMigrations) || errors.Is(err, ErrSchemaNotFound) {
		return nil, nil
	}
	return versions, err
}

// Pending returns versions not yet applied in the schema, ascending.
func (m *SchemaMigrator) Pending(ctx context.Context, schema string) ([]int64, error) {
	var versions []int64
	err := m.withProvider(ctx, schema, func(p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			if s.State == goose.StatePending {
				versions = append(versions, s.Source.Version)
			}
		}
		return nil
	})
	if errors.Is(err, goose.ErrNoMigrations) {
		return nil, nil
	}
	return versions, err
}

// Up applies every pending migration in version order and returns the versions applied by this call.
func (m *SchemaMigrator) Up(ctx context.Context, schema string) ([]int64, error) {
	var versions []int64
	err := m.withProvider(ctx, schema, func(p *goose.Provider) error {
		results, err := p.Up(ctx)
		for _, r := range results {
			if r.Error != nil {
				continue
			}
			versions = append(versions, r.Source.Version)
			m.log.InfoContext(ctx, "tenant migration applied",
				logger.Schema(schema),
				slog.Int64("version", r.Source.Version),
				slog.String("file", r.Source.Path),
				logger.Duration(r.Duration),
			)
		}
		return err
	})
	if errors.Is(err, goose.ErrNoMigrations) {
		return nil, nil
	}
	if err != nil {
		return versions, fmt.Errorf("migrate schema %q: %w", schema, err)
	}
	return versions, nil
}

func (m *SchemaMigrator) withProvider(ctx context.Context, schema string, fn func(*goose.Provider) error) error {
	if !tenant.IsTenantSchema(schema) {
		return fmt.Errorf("%w: %q", ErrUnsafeSchema, schema)
	}

	cfg := m.connConfig.Copy()
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = map[string]string{}
	}
	cfg.RuntimeParams["search_path"] = pgx.Identifier{schema}.Sanitize() + ", " + pgx.Identifier{tenant.PublicSchema}.Sanitize()

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(2)

	provider, err := m.newProvider(ctx, db, schema)
	if err != nil {
		_ = db.Close()
		return err
	}
	// Closing the provider closes db as well.
	defer func(p *goose.Provider) {
		if err := p.Close(); err != nil {
			m.log.ErrorContext(ctx, "failed to close migration connection", logger.Schema(schema), logger.Error(err))
		}
	}(provider)

	return fn(provider)
}

func (m *SchemaMigrator) newProvider(ctx context.Context, db *sql.DB, schema string) (*goose.Provider, error) {
	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_namespace WHERE nspname = $1)`, schema,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check schema %q: %w", schema, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, schema)
	}

	store, err := database.NewStore(database.DialectPostgres, schema+"."+m.table)
	if err != nil {
		return nil, err
	}

	opts := []goose.ProviderOption{goose.WithStore(store)}
	if m.sessionLk {
		locker, err := lock.NewPostgresSessionLocker(lock.WithLockID(schemaLockID(schema)))
		if err != nil {
			return nil, err
		}
		opts = append(opts, goose.WithSessionLocker(locker))
	}

	return goose.NewProvider("", db, m.fsys, opts...)
}

// schemaLockID derives a per-schema advisory lock key so that two attempts on the same
// tenant serialise while different tenants migrate in parallel.
func schemaLockID(schema string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(schema))
	return int64(h.Sum64())
}
