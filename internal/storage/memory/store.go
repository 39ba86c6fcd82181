package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/storage"
)

// Store is an in-memory implementation of the storage interface for testing.
type Store struct {
	mu sync.RWMutex

	changes map[string]*domain.ChangeRecord // key: id
}

var _ storage.Storage = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		changes: make(map[string]*domain.ChangeRecord),
	}
}

func (s *Store) Close() error { return nil }

// ============================================
// Change history
// ============================================

func (s *Store) CreateChange(ctx context.Context, change *domain.ChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.changes[change.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.changes[change.ID] = copyChange(change)
	return nil
}

func (s *Store) GetChange(ctx context.Context, id string) (*domain.ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	change, exists := s.changes[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return copyChange(change), nil
}

func (s *Store) ListChanges(ctx context.Context, limit, offset int) ([]*domain.ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	changes := make([]*domain.ChangeRecord, 0, len(s.changes))
	for _, c := range s.changes {
		changes = append(changes, copyChange(c))
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].CreatedAt.Equal(changes[j].CreatedAt) {
			return changes[i].ID > changes[j].ID
		}
		return changes[i].CreatedAt.After(changes[j].CreatedAt)
	})
	if offset >= len(changes) {
		return []*domain.ChangeRecord{}, nil
	}
	end := offset + limit
	if end > len(changes) {
		end = len(changes)
	}
	return changes[offset:end], nil
}

func (s *Store) CountChanges(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.changes), nil
}

func copyChange(c *domain.ChangeRecord) *domain.ChangeRecord {
	out := *c
	out.RequirementIDs = slices.Clone(c.RequirementIDs)
	return &out
}
