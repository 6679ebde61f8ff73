// Package metrics defines the Prometheus collectors shared by tenantkit components.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RoutingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantkit_routing_failures_total",
			Help: "Connection checkouts that could not be routed to their schema",
		},
		[]string{"reason"},
	)

	ProvisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenantkit_provision_duration_seconds",
			Help:    "Tenant schema provisioning duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"result"},
	)

	CacheEvictionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantkit_cache_eviction_failures_total",
			Help: "Cache eviction operations that failed in the backend",
		},
		[]string{"scope"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenantkit_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantkit_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// Routing failure reasons.
const (
	ReasonSchemaNotFound = "schema_not_found"
	ReasonDriver         = "driver"
	ReasonAcquire        = "acquire"
)

// Provisioning results.
const (
	ResultCommitted  = "committed"
	ResultRolledBack = "rolled_back"
)

// Eviction scopes.
const (
	ScopeEntry  = "entry"
	ScopeCache  = "cache"
	ScopeTenant = "tenant"
	ScopeGlobal = "global"
)

func init() {
	prometheus.MustRegister(
		RoutingFailures, ProvisionDuration, CacheEvictionFailures,
		RequestDuration, RequestsTotal,
	)
}
