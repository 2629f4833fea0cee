package hold

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	holds map[string]Hold
}

// NewMemoryStore creates an in-memory hold store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{holds: make(map[string]Hold)}
}

func (s *MemoryStore) Put(ctx context.Context, sessionID string, h Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[sessionID] = h
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[sessionID]
	if !ok || !h.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return &h, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, sessionID)
	return nil
}
