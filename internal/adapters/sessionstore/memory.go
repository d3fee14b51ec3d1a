// Package sessionstore provides session persistence adapters.
package sessionstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/0xcro3dile/docchat-go/internal/domain/apperr"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// DefaultCacheSize bounds the in-memory store when no size is given.
const DefaultCacheSize = 256

// MemoryStore keeps sessions in a bounded LRU cache. The least recently used
// session is evicted once the cache is full.
type MemoryStore struct {
	cache *lru.Cache[string, entities.Session]
}

// NewMemoryStore creates an in-memory store holding up to size sessions.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, entities.Session](size)
	if err != nil {
		return nil, apperr.E(apperr.CodeConfiguration, "sessionstore.NewMemoryStore", "", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Save stores a copy of s.
func (m *MemoryStore) Save(ctx context.Context, s *entities.Session) error {
	m.cache.Add(s.ID, clone(s))
	return nil
}

// Get returns a copy of the session.
func (m *MemoryStore) Get(ctx context.Context, id string) (*entities.Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, notFound("MemoryStore.Get", id)
	}
	cp := clone(&s)
	return &cp, nil
}

// Delete removes the session. Deleting an unknown session is a no-op.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.cache.Remove(id)
	return nil
}

// Len returns the number of cached sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

func clone(s *entities.Session) entities.Session {
	cp := *s
	cp.Messages = make([]entities.Message, len(s.Messages))
	for i, msg := range s.Messages {
		msg.Sources = append([]string{}, msg.Sources...)
		cp.Messages[i] = msg
	}
	return cp
}

func notFound(op, id string) error {
	return apperr.E(apperr.CodeNotFound, op, "Sessão não encontrada: "+id, nil)
}

var _ ports.SessionStore = (*MemoryStore)(nil)
