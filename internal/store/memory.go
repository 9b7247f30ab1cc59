package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps logs in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	logs   map[string][][]byte
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][][]byte)}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, docID string, records ...[]byte) error {
	if len(records) == 0 {
		return nil
	}
	first, err := firstVersion(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	log := s.logs[docID]
	if first != len(log) {
		return &VersionConflictError{DocID: docID, Expected: first, Actual: len(log)}
	}
	for _, rec := range records {
		log = append(log, slices.Clone(rec))
	}
	s.logs[docID] = log
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, docID string, fromVersion int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	log := s.logs[docID]
	fromVersion = max(fromVersion, 0)
	if fromVersion >= len(log) {
		return nil, nil
	}
	out := make([][]byte, 0, len(log)-fromVersion)
	for _, rec := range log[fromVersion:] {
		out = append(out, slices.Clone(rec))
	}
	return out, nil
}

// Version implements Store.
func (s *MemoryStore) Version(_ context.Context, docID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.logs[docID]), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
