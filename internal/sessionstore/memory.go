// internal/sessionstore/memory.go
package sessionstore

import (
	"context"
	"sync"
	"time"
)

type memStore struct {
	mu  sync.RWMutex
	m   map[string]memEntry
	ttl time.Duration
}

type memEntry struct {
	tok     Token
	expires time.Time
}

// NewMemoryStore returns a process-local store for dev and tests. Entries
// lapse after ttl (zero means no expiry).
func NewMemoryStore(ttl time.Duration) Store {
	return &memStore{m: map[string]memEntry{}, ttl: ttl}
}

func (s *memStore) Get(ctx context.Context, sessionID string) (*Token, error) {
	s.mu.RLock()
	e, ok := s.m[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if e.lapsed(time.Now()) {
		s.mu.Lock()
		// Reread under the write lock: a concurrent Set may have replaced
		// the entry since the read lock was dropped, and that write must
		// survive. Only a still-lapsed entry may be evicted.
		cur, ok := s.m[sessionID]
		if !ok {
			s.mu.Unlock()
			return nil, ErrNotFound
		}
		if cur.lapsed(time.Now()) {
			delete(s.m, sessionID)
			s.mu.Unlock()
			return nil, ErrNotFound
		}
		s.mu.Unlock()
		e = cur
	}
	tok := e.tok // copy so callers never alias the stored value
	return &tok, nil
}

func (e memEntry) lapsed(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

func (s *memStore) Set(ctx context.Context, sessionID string, tok *Token) error {
	e := memEntry{tok: *tok}
	if s.ttl > 0 {
		e.expires = time.Now().Add(s.ttl)
	}
	s.mu.Lock()
	s.m[sessionID] = e
	s.mu.Unlock()
	return nil
}

func (s *memStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.m, sessionID)
	s.mu.Unlock()
	return nil
}
