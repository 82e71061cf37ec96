package store

import (
	"context"
	"sync"

	"andesgo/intake/internal/models"
)

// MemoryStore keeps records in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*models.RequestRecord
	byID    map[string]*models.RequestRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*models.RequestRecord)}
}

func (s *MemoryStore) Append(ctx context.Context, record *models.RequestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.ID]; exists {
		return ErrDuplicateID
	}
	stored := record.Clone()
	s.records = append(s.records, stored)
	s.byID[record.ID] = stored
	return nil
}

// GetByID returns a deep copy so callers cannot mutate the stored record.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*models.RequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]*models.RequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RequestRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out, nil
}
