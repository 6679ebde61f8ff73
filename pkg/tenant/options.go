package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// config holds middleware configuration.
type config struct {
	errorHandler  ErrorHandler
	skipPaths     []string
	provider      Provider
	providerTTL   time.Duration
	providerSize  int
	requireActive bool
	logger        *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution.
// Requests on these paths run with an empty scope and target the public schema.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithProvider makes the middleware confirm that a resolved tenant exists in the
// registry before binding it. Lookups are memoised for the provider TTL.
// If p also implements SubdomainProvider, identifiers that are not UUIDs are
// looked up as subdomains.
func WithProvider(p Provider) Option {
	return func(c *config) {
		c.provider = p
	}
}

// WithProviderCache sets TTL and capacity of the provider lookup cache.
func WithProviderCache(ttl time.Duration, size int) Option {
	return func(c *config) {
		if ttl > 0 {
			c.providerTTL = ttl
		}
		if size > 0 {
			c.providerSize = size
		}
	}
}

// WithRequireActive rejects inactive tenants. Only effective together with WithProvider.
func WithRequireActive(require bool) Option {
	return func(c *config) {
		c.requireActive = require
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInactiveTenant):
		http.Error(w, "Tenant is inactive", http.StatusForbidden)
	case errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrBlankTenant):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrNoTenantInContext):
		http.Error(w, "Tenant required", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
