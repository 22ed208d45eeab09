package exam

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store and ResultStore over maps.
type MemoryStore struct {
	mu      sync.RWMutex
	tests   map[string]Test
	results map[string]Result
	order   []string // result ids in insertion order
}

func NewInMemoryStore() *MemoryStore {
	return &MemoryStore{
		tests:   map[string]Test{},
		results: map[string]Result{},
	}
}

func (m *MemoryStore) PutTest(_ context.Context, t Test) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.ID] = t.Clone()
	return nil
}

func (m *MemoryStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrTestNotFound
	}
	return t.Clone(), nil
}

func (m *MemoryStore) ListTests(_ context.Context) ([]Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Test, 0, len(m.tests))
	for _, t := range m.tests {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveResult(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	m.results[r.ID] = r
	return nil
}

func (m *MemoryStore) GetResult(_ context.Context, id string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return Result{}, ErrResultNotFound
	}
	return r, nil
}

func (m *MemoryStore) ListResults(_ context.Context) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Result, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.results[id])
	}
	return out, nil
}
