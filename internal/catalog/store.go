// internal/catalog/store.go
package catalog

import (
	"context"
	"sync"

	"github.com/jason-s-yu/happyfamilies/internal/models"
)

// Store persists catalog families. The Postgres repository in internal/database satisfies it.
type Store interface {
	LoadFamilies(ctx context.Context) ([]models.Family, error)
	SaveFamily(ctx context.Context, f models.Family) error
}

// MemoryStore keeps families in process memory. It is the default when no database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	families []models.Family
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadFamilies(_ context.Context) ([]models.Family, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Family(nil), m.families...), nil
}

// SaveFamily appends f unless a family with the same id is already stored.
func (m *MemoryStore) SaveFamily(_ context.Context, f models.Family) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.families {
		if existing.ID == f.ID {
			return nil
		}
	}
	m.families = append(m.families, f)
	return nil
}
