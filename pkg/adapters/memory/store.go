package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/contextplus/pkg/domain"
)

type entry struct {
	state     string
	updatedAt time.Time
}

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]entry
	mu   sync.RWMutex
	now  func() time.Time
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Save records the state for key.
func (s *Store) Save(ctx context.Context, key string, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry{state: state, updatedAt: s.now()}
	return nil
}

// Load retrieves the state for key.
func (s *Store) Load(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return "", domain.ErrStateNotFound
	}
	return e.state, nil
}

// UpdatedAt reports when key was last saved.
func (s *Store) UpdatedAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	return e.updatedAt, ok
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
