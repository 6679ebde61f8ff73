package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"regexp"
	"strings"
)

const (
	// DefaultHeader carries the tenant UUID on inbound requests.
	DefaultHeader = "X-Tenant-ID"

	// maxLabelLength keeps subdomain identifiers within a single DNS label.
	maxLabelLength = 63
)

// subdomainPattern ensures DNS-safe labels: alphanumeric start, allows hyphens, no dots.
var subdomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*$`)

// Resolver extracts a tenant identifier from an HTTP request.
// Returns empty string if no tenant signal is present, error if the signal is malformed.
type Resolver func(r *http.Request) (string, error)

// ClaimFunc returns the tenant claim of a token already verified by the authentication layer.
type ClaimFunc func(ctx context.Context) (string, bool)

// NewHeaderResolver reads the tenant from a request header.
// Defaults to "X-Tenant-ID" if name is empty.
func NewHeaderResolver(name string) Resolver {
	if name == "" {
		name = DefaultHeader
	}
	return func(r *http.Request) (string, error) {
		return strings.TrimSpace(r.Header.Get(name)), nil
	}
}

// NewClaimResolver reads the tenant from a verified token claim.
func NewClaimResolver(claim ClaimFunc) Resolver {
	return func(r *http.Request) (string, error) {
		if claim == nil {
			return "", nil
		}
		value, ok := claim(r.Context())
		if !ok {
			return "", nil
		}
		return strings.TrimSpace(value), nil
	}
}

// NewSubdomainResolver infers the tenant from the first label of the host,
// optionally stripping a base-domain suffix such as ".app.com".
// Loopback hosts and IP literals never yield a tenant.
func NewSubdomainResolver(suffix string) Resolver {
	suffix = strings.ToLower(suffix)
	return func(r *http.Request) (string, error) {
		host := hostOnly(r.Host)
		if host == "" || isLoopbackOrIP(host) {
			return "", nil
		}

		// Require subdomain.domain.tld before the suffix is even considered.
		if strings.Count(host, ".") < 2 {
			return "", nil
		}
		if suffix != "" {
			if !strings.HasSuffix(host, suffix) || len(host) <= len(suffix) {
				return "", nil
			}
			host = strings.TrimSuffix(host, suffix)
		}

		labels := strings.Split(host, ".")
		label := labels[0]
		if label == "www" {
			if len(labels) < 2 || (suffix == "" && len(labels) < 4) {
				return "", nil
			}
			label = labels[1]
		}
		if label == "" {
			return "", nil
		}
		if len(label) > maxLabelLength || !subdomainPattern.MatchString(label) {
			return "", fmt.Errorf("%w: subdomain %q", ErrInvalidIdentifier, label)
		}
		return label, nil
	}
}

// NewCompositeResolver tries resolvers in order and returns the first non-empty result.
// Errors are collected and reported only if no resolver produced an identifier.
func NewCompositeResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		var errs []error
		for _, resolve := range resolvers {
			if resolve == nil {
				continue
			}
			id, err := resolve(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if id != "" {
				return id, nil
			}
		}
		if len(errs) > 0 {
			return "", errors.Join(errs...)
		}
		return "", nil
	}
}

// NewDefaultResolver applies the standard priority: explicit header, then
// verified claim, then subdomain inference. A nil claim func skips the claim step.
func NewDefaultResolver(header, suffix string, claim ClaimFunc) Resolver {
	return NewCompositeResolver(
		NewHeaderResolver(header),
		NewClaimResolver(claim),
		NewSubdomainResolver(suffix),
	)
}

func hostOnly(hostport string) string {
	host := strings.ToLower(strings.TrimSpace(hostport))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return strings.TrimSuffix(host, ".")
}

func isLoopbackOrIP(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return true
	}
	return false
}
