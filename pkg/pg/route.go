package pg

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// routeSQL sets the session search_path and checks the target schema in one round trip.
// PostgreSQL accepts a search_path naming a missing schema without complaint, so the
// existence check is what turns a typo or a deleted tenant into a hard failure.
const routeSQL = `SELECT set_config('search_path', $1, false), EXISTS (SELECT 1 FROM pg_catalog.pg_namespace WHERE nspname = $2)`

// RowQuerier is satisfied by *pgx.Conn, *pgxpool.Conn, *pgxpool.Pool and pgx.Tx.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SearchPath renders the quoted search_path value for target,
// e.g. `"tenant_0b3f...", "public"` or `"public"`.
func SearchPath(target tenant.Target) string {
	schemas := target.SearchPath()
	quoted := make([]string, len(schemas))
	for i, s := range schemas {
		quoted[i] = pgx.Identifier{s}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

// Route points the session behind q at target. It must run on every checkout:
// pooled connections keep whatever search_path the previous borrower left.
// Callers that own a connection (listeners, batch jobs) use it directly;
// everything else goes through Router.
func Route(ctx context.Context, q RowQuerier, target tenant.Target) error {
	var (
		applied string
		exists  bool
	)
	if err := q.QueryRow(ctx, routeSQL, SearchPath(target), target.Schema()).Scan(&applied, &exists); err != nil {
		return newRoutingError(target, err)
	}
	if !exists {
		return newRoutingError(target, ErrSchemaNotFound)
	}
	return nil
}
