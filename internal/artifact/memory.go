// ABOUTME: In-memory implementation of the artifact Store for tests
// ABOUTME: Whole-value map swaps under a mutex give the same atomicity as the fs backend

package artifact

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store with an in-process map. Used by unit tests
// and by examples that do not need durable artifacts.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, runID, name string, data []byte) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.runs[runID]
	if !ok {
		docs = make(map[string][]byte)
		s.runs[runID] = docs
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	docs[clean] = buf
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, runID, name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := docs[clean]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (s *MemoryStore) List(ctx context.Context, runID, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := []string{}
	for name := range s.runs[runID] {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
