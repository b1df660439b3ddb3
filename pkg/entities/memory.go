package entities

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemorySource keeps entities in memory. It is mostly useful for tests and
// for data that does not need to survive the process.
type MemorySource[T Entity[T]] struct {
	mu    sync.RWMutex
	items []T
}

// NewMemorySource returns a source holding copies of seed.
func NewMemorySource[T Entity[T]](seed ...T) *MemorySource[T] {
	items := make([]T, 0, len(seed))
	for _, e := range seed {
		items = append(items, e.Clone())
	}
	return &MemorySource[T]{items: items}
}

// Load implements Source.
func (s *MemorySource[T]) Load(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items, nil
}

// Store implements Source.
func (s *MemorySource[T]) Store(_ context.Context, mutate func(current []T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := make([]T, 0, len(s.items))
	for _, e := range s.items {
		current = append(current, e.Clone())
	}
	next, err := mutate(current)
	if err != nil {
		return err
	}
	s.items = next
	return nil
}

// Close implements Source.
func (s *MemorySource[T]) Close() error {
	return nil
}

// NewMemoryRepository returns a staging repository over an in-memory source
// seeded with copies of seed.
func NewMemoryRepository[T Entity[T]](logger *zap.Logger, seed ...T) *StagingRepository[T] {
	return NewStagingRepository[T](NewMemorySource(seed...), logger)
}
