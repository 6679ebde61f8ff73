package provision_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type fakeStore struct {
	mu      sync.Mutex
	schemas map[string]bool
	drops   []string

	existsErr error
	createErr error
	dropErr   error
}

func newFakeStore(existing ...string) *fakeStore {
	s := &fakeStore{schemas: map[string]bool{}}
	for _, name := range existing {
		s.schemas[name] = true
	}
	return s
}

func (s *fakeStore) SchemaExists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.schemas[name], nil
}

func (s *fakeStore) CreateSchema(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return false, s.createErr
	}
	if s.schemas[name] {
		return false, nil
	}
	s.schemas[name] = true
	return true, nil
}

func (s *fakeStore) DropSchema(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drops = append(s.drops, name)
	if s.dropErr != nil {
		return s.dropErr
	}
	delete(s.schemas, name)
	return nil
}

func (s *fakeStore) dropped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.drops)
}

// lockingStore records which schemas were locked through the store.
type lockingStore struct {
	*fakeStore
	locked []string
}

func (s *lockingStore) LockSchema(_ context.Context, name string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = append(s.locked, name)
	return func() {}, nil
}

func (s *fakeStore) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schemas[name]
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.schemas)
}

// fakeMigrator keeps a per-schema ledger over a fixed migration set.
type fakeMigrator struct {
	mu       sync.Mutex
	versions []int64
	ledger   map[string][]int64
	failAt   int64

	// beforeUp runs outside the ledger lock; a non-nil error aborts Up.
	beforeUp func(ctx context.Context) error
}

func newFakeMigrator(versions ...int64) *fakeMigrator {
	return &fakeMigrator{versions: versions, ledger: map[string][]int64{}}
}

func (m *fakeMigrator) Applied(_ context.Context, schema string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.ledger[schema]), nil
}

func (m *fakeMigrator) Pending(_ context.Context, schema string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for _, v := range m.versions {
		if !slices.Contains(m.ledger[schema], v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *fakeMigrator) Up(ctx context.Context, schema string) ([]int64, error) {
	if m.beforeUp != nil {
		if err := m.beforeUp(ctx); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var applied []int64
	for _, v := range m.versions {
		if slices.Contains(m.ledger[schema], v) {
			continue
		}
		if m.failAt != 0 && v == m.failAt {
			return applied, fmt.Errorf("migration %d: syntax error", v)
		}
		m.ledger[schema] = append(m.ledger[schema], v)
		applied = append(applied, v)
	}
	return applied, nil
}
