package storage

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/bryanwahyu/heartnote/internal/domain/history"
)

// MemoryStore is a process-local Store. Values are copied in and out.
type MemoryStore struct {
	mu            sync.RWMutex
	data          map[string][]byte
	maxValueBytes int
}

func NewMemory(maxValueBytes int) *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}, maxValueBytes: maxValueBytes}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return fmt.Errorf("memory set %s (%d bytes): %w", key, len(value), domain.ErrCapacityExceeded)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
