package jwt

import (
	"errors"
	"net/http"
	"strings"
)

// Extractor pulls the raw token out of a request.
// It returns ErrMissingToken when the request carries none.
type Extractor func(r *http.Request) (string, error)

// MiddlewareConfig configures MiddlewareWithConfig.
type MiddlewareConfig struct {
	Service *Service
	// Extractor defaults to BearerTokenExtractor.
	Extractor Extractor
	Skip      func(r *http.Request) bool
	// Optional lets requests without any token through unauthenticated.
	// A token that is present but invalid is always rejected.
	Optional bool
}

// Middleware requires a valid bearer token on every request.
func Middleware(service *Service) func(next http.Handler) http.Handler {
	return MiddlewareWithConfig(MiddlewareConfig{Service: service})
}

// MiddlewareWithConfig verifies the request token and stores the token and its
// claims in the request context.
func MiddlewareWithConfig(cfg MiddlewareConfig) func(next http.Handler) http.Handler {
	if cfg.Service == nil {
		panic("jwt: middleware requires a service")
	}
	if cfg.Extractor == nil {
		cfg.Extractor = BearerTokenExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := cfg.Extractor(r)
			switch {
			case errors.Is(err, ErrMissingToken) && cfg.Optional:
				next.ServeHTTP(w, r)
				return
			case err != nil:
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := cfg.Service.Parse(raw)
			if err != nil {
				http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			ctx := SetClaims(SetToken(r.Context(), raw), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects requests whose verified claims lack scope: 401 without
// claims, 403 with claims that do not grant it. It must run after the middleware.
func RequireScope(scope string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}
			if !claims.HasScope(scope) {
				http.Error(w, ErrInsufficientScope.Error(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// HeaderTokenExtractor reads the raw token from a custom header.
func HeaderTokenExtractor(name string) Extractor {
	return func(r *http.Request) (string, error) {
		if token := r.Header.Get(name); token != "" {
			return token, nil
		}
		return "", ErrMissingToken
	}
}
