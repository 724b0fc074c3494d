package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"scenario-assessment-service/internal/engine"
)

// SessionStore is a Redis-aware implementation of engine.SessionRepository.
// Notes:
//   - Sessions stay in a local in-process map; the state machine and its
//     timers are not serializable and each game screen owns exactly one
//     session on one instance anyway.
//   - Redis marks session liveness so operators can see open sessions across
//     instances (and it could be extended to route reconnects).
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*engine.Session),
	}
}

func (s *SessionStore) Put(session *engine.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), "1", s.ttl).Err()
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
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "assess:session:" + sessionID
}
