package pg

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, use PG_CONN_URL env var")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
	ErrMigrationsDirNotFound    = errors.New("migrations directory not found")

	// ErrRouting marks every failure to point a connection at its tenant schema.
	ErrRouting = errors.New("connection routing failed")

	// ErrSchemaNotFound is returned when the routed schema does not exist.
	ErrSchemaNotFound = errors.New("schema does not exist")

	// ErrUnsafeSchema is returned when a DDL helper is asked to touch a schema that is not a tenant schema.
	ErrUnsafeSchema = errors.New("refusing to modify a non-tenant schema")
)

// RoutingError reports a checkout that could not be pointed at its target schema.
// The connection is never handed out in that case and no fallback to public happens.
type RoutingError struct {
	Schema   string
	TenantID uuid.UUID // uuid.Nil when the target was public
	Err      error
}

func newRoutingError(target tenant.Target, err error) *RoutingError {
	id, _ := target.TenantID()
	return &RoutingError{Schema: target.Schema(), TenantID: id, Err: err}
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("route connection to schema %q: %v", e.Schema, e.Err)
}

// Unwrap exposes both ErrRouting and the underlying cause to errors.Is / errors.As.
func (e *RoutingError) Unwrap() []error {
	return []error{ErrRouting, e.Err}
}

// IsRoutingError reports whether err is a connection routing failure.
func IsRoutingError(err error) bool {
	return errors.Is(err, ErrRouting)
}

// IsNotFoundError detects pgx.ErrNoRows for consistent "not found" handling across queries.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError detects PostgreSQL unique constraint violations (SQLSTATE 23505).
// Concurrent CREATE SCHEMA can raise it on pg_namespace instead of 42P06.
func IsDuplicateKeyError(err error) bool {
	return hasCode(err, "23505")
}

// IsDuplicateSchemaError detects SQLSTATE 42P06 (duplicate_schema).
func IsDuplicateSchemaError(err error) bool {
	return hasCode(err, "42P06")
}

// IsInvalidSchemaError detects SQLSTATE 3F000 (invalid_schema_name).
func IsInvalidSchemaError(err error) bool {
	return hasCode(err, "3F000")
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
