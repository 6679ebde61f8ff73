package tenantcache

import "context"

// Keyer builds keys for one cache from a typed identity, e.g.
//
//	products := tenantcache.NewKeyer(ns, "products", func(id ProductID) []string {
//	    return []string{string(id)}
//	})
type Keyer[T any] struct {
	ns        *Namespace
	cacheName string
	parts     func(T) []string
}

// NewKeyer creates a typed key builder for cacheName.
func NewKeyer[T any](ns *Namespace, cacheName string, parts func(T) []string) *Keyer[T] {
	if ns == nil || parts == nil {
		panic("tenantcache: keyer requires a namespace and a parts function")
	}
	return &Keyer[T]{ns: ns, cacheName: cacheName, parts: parts}
}

func (k *Keyer[T]) CacheName() string {
	return k.cacheName
}

// Key returns the entry key for v under the tenant bound to ctx.
func (k *Keyer[T]) Key(ctx context.Context, v T) string {
	return k.ns.Key(ctx, k.cacheName, k.parts(v)...)
}

// Parts returns the identity parts for v.
func (k *Keyer[T]) Parts(v T) []string {
	return k.parts(v)
}

// Pattern matches every entry of this cache under the tenant bound to ctx.
func (k *Keyer[T]) Pattern(ctx context.Context) string {
	return k.ns.Pattern(ctx, k.cacheName)
}
