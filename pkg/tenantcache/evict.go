package tenantcache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
)

// EvictionReport summarises a bulk eviction. Failures are reported here and in
// metrics and logs; they are never returned as errors.
type EvictionReport struct {
	Patterns   []string
	Matched    int  // keys enumerated
	Deleted    int  // keys the backend confirmed removed
	Failed     int  // keys whose delete call failed
	Incomplete bool // enumeration failed, so Matched may be short
}

// OK reports whether the eviction completed without backend errors.
func (r EvictionReport) OK() bool {
	return r.Failed == 0 && !r.Incomplete
}

func (r *EvictionReport) merge(o EvictionReport) {
	r.Patterns = append(r.Patterns, o.Patterns...)
	r.Matched += o.Matched
	r.Deleted += o.Deleted
	r.Failed += o.Failed
	r.Incomplete = r.Incomplete || o.Incomplete
}

type evictor struct {
	backend Backend
	opts    options
}

func (e *evictor) deleteKeys(ctx context.Context, scope string, keys []string) EvictionReport {
	rep := EvictionReport{Matched: len(keys)}
	if len(keys) == 0 {
		return rep
	}

	var deleted, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.parallelism)

	for start := 0; start < len(keys); start += e.opts.batchSize {
		batch := keys[start:min(start+e.opts.batchSize, len(keys))]
		g.Go(func() error {
			n, err := e.backend.Delete(gctx, batch...)
			deleted.Add(int64(n))
			if err != nil {
				f := len(batch) - n
				var pe PartialDeleteError
				if errors.As(err, &pe) {
					f = pe.FailedKeys()
				}
				failed.Add(int64(f))
				metrics.CacheEvictionFailures.WithLabelValues(scope).Inc()
				e.opts.log.WarnContext(ctx, "cache delete failed",
					logger.Scope(scope),
					logger.Count("batch", len(batch)),
					logger.Error(err),
				)
			}
			// Errors are accounted above; returning nil keeps the remaining batches running.
			return nil
		})
	}
	_ = g.Wait()

	rep.Deleted = int(deleted.Load())
	rep.Failed = int(failed.Load())
	return rep
}

func (e *evictor) evictPattern(ctx context.Context, scope, pattern string) EvictionReport {
	keys, err := e.backend.Keys(ctx, pattern)
	rep := e.deleteKeys(ctx, scope, keys)
	rep.Patterns = []string{pattern}

	if err != nil {
		rep.Incomplete = true
		metrics.CacheEvictionFailures.WithLabelValues(scope).Inc()
		e.opts.log.WarnContext(ctx, "cache key enumeration failed",
			logger.Scope(scope),
			logger.Pattern(pattern),
			logger.Error(err),
		)
	}
	return rep
}

func (e *evictor) logReport(ctx context.Context, level slog.Level, msg, scope string, rep EvictionReport) {
	e.opts.log.Log(ctx, level, msg,
		logger.Scope(scope),
		slog.Any("patterns", rep.Patterns),
		logger.Count("matched", rep.Matched),
		logger.Count("deleted", rep.Deleted),
		logger.Count("failed", rep.Failed),
		slog.Bool("incomplete", rep.Incomplete),
	)
}
