// Package tenancy exposes tenant lifecycle over HTTP: registering and
// provisioning tenants, reporting their schema status, deleting them, and
// evicting cached data for one tenant or for all of them.
//
// Registry keeps tenant records in public.tenants and doubles as the
// tenant.Provider consulted by the request boundary middleware.
package tenancy
