package pg

import "time"

type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL,required"`                   // ConnectionString is the connection string to the database.
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the size of the single pool shared by all tenants.
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`       // MaxIdleConns is the number of connections kept open when idle.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between health checks.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum amount of time a connection may be idle to be reused.
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum amount of time a connection may be reused.

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of retry attempts to connect to the database.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the base interval between retry attempts.

	MigrationsPath        string `env:"PG_MIGRATIONS_PATH"`                                               // MigrationsPath overrides the embedded public-schema migrations with a directory.
	MigrationsTable       string `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`               // MigrationsTable is the ledger of public-schema migrations.
	TenantMigrationsPath  string `env:"PG_TENANT_MIGRATIONS_PATH"`                                        // TenantMigrationsPath overrides the embedded tenant-schema migrations with a directory.
	TenantMigrationsTable string `env:"PG_TENANT_MIGRATIONS_TABLE" envDefault:"tenant_schema_migrations"` // TenantMigrationsTable is the per-schema migration ledger, created inside every tenant schema.
}
