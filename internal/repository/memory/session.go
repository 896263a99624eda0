package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	apperrors "github.com/Djamauk/himalayanpinksalt.online/pkg/errors"
)

// SessionStore keeps live checkout sessions in memory. Sessions past their
// TTL behave as gone on read and are swept by PurgeExpired.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.CheckoutSession
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.CheckoutSession),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionStore) Get(_ context.Context, id string) (*domain.CheckoutSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, apperrors.NotFound("checkout session", id)
	}
	if sess.Expired(s.now()) {
		return nil, apperrors.Gone("checkout session has expired")
	}
	return sess, nil
}

func (s *SessionStore) Save(_ context.Context, sess *domain.CheckoutSession) error {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// PurgeExpired removes every session past its TTL and returns the count.
func (s *SessionStore) PurgeExpired(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
