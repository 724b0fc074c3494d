package memory

import (
	"sync"

	"scenario-assessment-service/internal/engine"
)

// SessionStore is an in-memory implementation of engine.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*engine.Session),
	}
}

func (s *SessionStore) Put(session *engine.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(sessionID string) (*engine.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
