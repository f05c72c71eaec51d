// Package memory provides a process-local domain.Storage, useful for tests and
// throwaway profiles.
package memory

import (
	"context"
	"sync"

	"github.com/msomdec/expense-tracker/internal/domain"
)

// Store implements domain.Storage with a map.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{records: make(map[string][]byte)}
}

// Load returns a copy of the record under key, or domain.ErrNotFound.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save stores a copy of data under key, replacing any previous record.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes the record under key. Missing keys are not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Migrate is a no-op; it lets Store satisfy domain.Database.
func (s *Store) Migrate(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
