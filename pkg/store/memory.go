package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/glowkit/filterchain/pkg/chain"
)

// MemoryStore is an in-memory Store, safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	chains map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chains: map[string]*Record{}}
}

// Save stores a chain under a name.
func (m *MemoryStore) Save(ctx context.Context, name string, c chain.Chain, overwrite bool) error {
	if name == "" {
		return ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	existing, exists := m.chains[name]
	if exists && !overwrite {
		return ErrChainExists
	}

	rec := &Record{
		Name:    name,
		Created: now,
		Updated: now,
		Chain:   chain.Export(c),
	}
	if exists {
		rec.Created = existing.Created
	}
	m.chains[name] = rec
	return nil
}

// Load retrieves a chain by name.
func (m *MemoryStore) Load(ctx context.Context, name string) (chain.Chain, error) {
	if name == "" {
		return chain.Chain{}, ErrInvalidName
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.chains[name]
	if !ok {
		return chain.Chain{}, ErrChainNotFound
	}
	return chain.Import(rec.Chain), nil
}

// List returns all records sorted by name. Returned records are copies.
func (m *MemoryStore) List(ctx context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Record, 0, len(m.chains))
	for _, rec := range m.chains {
		dup := *rec
		dup.Chain = append(chain.Document(nil), rec.Chain...)
		out = append(out, &dup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a record; absent names are a no-op.
func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chains, name)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
