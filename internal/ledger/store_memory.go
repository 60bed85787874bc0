package ledger

import (
	"context"
	"sync"
)

// InMemoryStore is a map-backed Store for tests and single-process setups.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, physicalResourceID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[RecordKey(physicalResourceID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *InMemoryStore) Put(_ context.Context, physicalResourceID string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[RecordKey(physicalResourceID)] = record
	return nil
}
