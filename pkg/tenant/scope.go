package tenant

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Scope holds the tenant bound to one unit of work (typically one HTTP request).
// It starts absent, is set at most once when the tenant is resolved and must be
// cleared when the unit finishes. Readers may run concurrently with Set and Clear.
type Scope struct {
	id atomic.Pointer[uuid.UUID]
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Set parses and binds a tenant identifier.
func (s *Scope) Set(id string) error {
	parsed, err := ParseID(id)
	if err != nil {
		return err
	}
	return s.SetID(parsed)
}

// SetID binds an already parsed tenant id. Re-binding the same id is a no-op;
// binding a different one fails with ErrTenantAlreadySet.
func (s *Scope) SetID(id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrBlankTenant
	}
	if s.id.CompareAndSwap(nil, &id) {
		return nil
	}
	if cur := s.id.Load(); cur != nil && *cur == id {
		return nil
	}
	// Lost a race with Clear: retry once against the now-empty slot.
	if s.id.CompareAndSwap(nil, &id) {
		return nil
	}
	return ErrTenantAlreadySet
}

// Get returns the bound tenant id, or false when absent.
func (s *Scope) Get() (uuid.UUID, bool) {
	if s == nil {
		return uuid.Nil, false
	}
	if id := s.id.Load(); id != nil {
		return *id, true
	}
	return uuid.Nil, false
}

// Clear unbinds the tenant. Clearing an empty scope is allowed.
func (s *Scope) Clear() {
	if s == nil {
		return
	}
	s.id.Store(nil)
}

// Target returns the routing decision for the scope's current state.
func (s *Scope) Target() Target {
	id, ok := s.Get()
	if !ok {
		return Public()
	}
	return ForTenant(id)
}
