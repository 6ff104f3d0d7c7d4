package store

import (
	"sync"

	"github.com/buildmart/haggle/internal/domain"
)

// MemorySessionStore is an in-memory SessionStore implementation.
// Useful for tests and for runs that should not touch the filesystem.
type MemorySessionStore struct {
	mu   sync.RWMutex
	sess *domain.Session
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Save(sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &sess
	return nil
}

func (s *MemorySessionStore) Load() (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil, nil
	}
	copied := *s.sess
	return &copied, nil
}

func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}
