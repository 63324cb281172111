package store

import (
	"context"
	"sync"

	"cropchain/internal/batch/models"
	"cropchain/pkg/platform/sentinel"
)

// InMemory keeps batches in a map guarded by a mutex. The sequence restarts
// with the process.
type InMemory struct {
	mu      sync.RWMutex
	batches map[string]*models.Batch
	seq     int64
}

func NewInMemory() *InMemory {
	return &InMemory{batches: make(map[string]*models.Batch)}
}

func (s *InMemory) NextSequence(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

func (s *InMemory) Create(_ context.Context, b *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[b.BatchID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.batches[b.BatchID] = b.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, batchID string) (*models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[batchID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return b.Clone(), nil
}

func (s *InMemory) Execute(_ context.Context, batchID string, mutate func(*models.Batch) error) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := b.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.batches[batchID] = working
	return working.Clone(), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, b.Clone())
	}
	return out, nil
}
