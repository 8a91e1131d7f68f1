// Package memory provides a process-local key-value store.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/cart"
)

var _ cart.Store = (*Store)(nil)

// Store keeps values in a map. Stored and returned slices are copies.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns the value for key or cart.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, cart.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}
