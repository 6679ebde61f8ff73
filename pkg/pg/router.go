package pg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Router hands out pooled connections already pointed at the right schema.
// All tenants share one pool; isolation comes from re-issuing the search_path
// directive on every checkout, never from remembering what a connection was last used for.
type Router struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger used to report routing failures.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRouter wraps the shared pool.
func NewRouter(pool *pgxpool.Pool, opts ...RouterOption) *Router {
	if pool == nil {
		panic("pg: router requires a connection pool")
	}
	r := &Router{
		pool: pool,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("pg.router"))
	return r
}

// Pool returns the underlying pool. Connections taken from it directly are not routed.
func (r *Router) Pool() *pgxpool.Pool {
	return r.pool
}

// Acquire checks out a connection routed to the tenant bound to ctx,
// or to the public schema when none is bound.
// The caller must Release the connection.
func (r *Router) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	return r.AcquireFor(ctx, tenant.TargetFromContext(ctx))
}

// AcquireFor checks out a connection routed to target.
// On any routing failure the connection goes back to the pool and a *RoutingError is returned.
func (r *Router) AcquireFor(ctx context.Context, target tenant.Target) (*pgxpool.Conn, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		metrics.RoutingFailures.WithLabelValues(metrics.ReasonAcquire).Inc()
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if err := Route(ctx, conn, target); err != nil {
		conn.Release()
		r.reportFailure(ctx, target, err)
		return nil, err
	}

	return conn, nil
}

// WithConn runs fn on a routed connection and releases it afterwards.
func (r *Router) WithConn(ctx context.Context, fn func(ctx context.Context, conn *pgxpool.Conn) error) error {
	conn, err := r.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return fn(ctx, conn)
}

// WithTx runs fn inside a transaction on a routed connection.
// The transaction is committed when fn returns nil and rolled back otherwise.
func (r *Router) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return r.WithConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			return fn(ctx, tx)
		})
	})
}

// Exec runs a statement on a routed connection.
func (r *Router) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	conn, err := r.Acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()

	return conn.Exec(ctx, sql, args...)
}

// Query runs a query on a routed connection. The connection is released
// when the rows are closed or fully read.
func (r *Router) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	conn, err := r.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &routedRows{Rows: rows, conn: conn}, nil
}

// QueryRow runs a single-row query on a routed connection.
// Routing errors surface from Scan.
func (r *Router) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	conn, err := r.Acquire(ctx)
	if err != nil {
		return errRow{err: err}
	}

	return &routedRow{row: conn.QueryRow(ctx, sql, args...), conn: conn}
}

func (r *Router) reportFailure(ctx context.Context, target tenant.Target, err error) {
	reason := metrics.ReasonDriver
	if errors.Is(err, ErrSchemaNotFound) {
		reason = metrics.ReasonSchemaNotFound
	}
	metrics.RoutingFailures.WithLabelValues(reason).Inc()

	r.log.ErrorContext(ctx, "connection routing failed",
		logger.Schema(target.Schema()),
		slog.String("reason", reason),
		logger.Error(err),
	)
}

type routedRows struct {
	pgx.Rows
	conn *pgxpool.Conn
	once sync.Once
}

func (r *routedRows) Next() bool {
	if r.Rows.Next() {
		return true
	}
	r.Close()
	return false
}

func (r *routedRows) Close() {
	r.Rows.Close()
	r.once.Do(r.conn.Release)
}

type routedRow struct {
	row  pgx.Row
	conn *pgxpool.Conn
}

func (r *routedRow) Scan(dest ...any) error {
	defer r.conn.Release()
	return r.row.Scan(dest...)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
