// internal/identity/memory.go
//
// In-memory Store. State is lost when the process exits; used by tests and
// when no storage path is configured.

package identity

import (
	"context"
	"sync"
)

type memory struct {
	mu      sync.RWMutex
	kv      map[string]string
	results []Result
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{kv: make(map[string]string)}
}

func (m *memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.kv[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (m *memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memory) RecordResult(ctx context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, have := range m.results {
		if have.Mode == r.Mode && have.GameID == r.GameID {
			return nil
		}
	}
	m.results = append(m.results, r)
	return nil
}

func (m *memory) Results(ctx context.Context, limit int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = defaultResultLimit
	}
	out := make([]Result, 0, limit)
	for i := len(m.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.results[i])
	}
	return out, nil
}

func (m *memory) Close() error { return nil }
