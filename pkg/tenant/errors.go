package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when the identifier is not a valid tenant UUID.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrBlankTenant is returned when an empty or whitespace-only tenant is bound to a scope.
	// An empty tenant is a programming error, not a valid "no tenant" state.
	ErrBlankTenant = errors.New("blank tenant identifier")

	// ErrTenantAlreadySet is returned when a scope that already carries a tenant is asked to carry another one.
	ErrTenantAlreadySet = errors.New("scope already bound to a different tenant")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrInactiveTenant is returned when trying to use an inactive tenant.
	ErrInactiveTenant = errors.New("tenant is inactive")
)
