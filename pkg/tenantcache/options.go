package tenantcache

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
)

// Auditor records administrative cache actions. Implemented by *audit.Logger.
type Auditor interface {
	Log(ctx context.Context, action string, opts ...audit.EventOption) error
}

type options struct {
	log         *slog.Logger
	ttl         time.Duration
	batchSize   int
	parallelism int
	audit       Auditor
}

func defaultOptions() options {
	return options{
		log:         slog.Default(),
		ttl:         time.Hour,
		batchSize:   500,
		parallelism: 4,
	}
}

// Option configures a Cache or an Admin.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithDefaultTTL sets the TTL used by Remember when none is given.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithBatchSize sets how many keys a single bulk delete call carries.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithParallelism bounds concurrent delete batches during bulk eviction.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithAuditor records global evictions. Only Admin uses it.
func WithAuditor(a Auditor) Option {
	return func(o *options) {
		o.audit = a
	}
}
