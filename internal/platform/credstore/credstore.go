// Package credstore persists the session credential pair across gateway
// restarts. The store is scoped to a single gateway instance key; Clear
// removes the pair atomically on logout.
package credstore

import (
	"context"
	"sync"
)

// Record is the persisted credential pair.
type Record struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token,omitempty"`
}

// Store reads the persisted credential at startup and writes it on login.
type Store interface {
	Load(ctx context.Context) (*Record, bool, error)
	Save(ctx context.Context, rec *Record) error
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local Store used in tests and when no Redis is
// configured.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, false, nil
	}
	cp := *s.rec
	return &cp, true, nil
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.rec = &cp
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
