package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "catalogue_session"
	defaultSessionTTL = time.Hour
)

type session struct {
	identity string
	expires  time.Time
}

// sessionStore maps session ids to serialized user identities.
type sessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]session
	now     func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionStore{
		ttl:     ttl,
		entries: make(map[string]session),
		now:     time.Now,
	}
}

func (s *sessionStore) create(identity string) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()
	s.entries[id] = session{identity: identity, expires: s.now().Add(s.ttl)}
	return id
}

func (s *sessionStore) lookup(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return "", false
	}
	if !s.now().Before(entry.expires) {
		delete(s.entries, id)
		return "", false
	}
	return entry.identity, true
}

func (s *sessionStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

func (s *sessionStore) purgeLocked() {
	now := s.now()
	for id, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, id)
		}
	}
}
