package memsession

import (
	"context"
	"sync"
	"time"

	"github.com/slps/canteen/core/account"
)

type entry struct {
	sess      account.Session
	expiresAt time.Time
}

// Store keeps sessions in process memory; they are lost on restart.
type Store struct {
	mutex    sync.RWMutex
	sessions map[string]entry
	now      func() time.Time
}

var _ account.SessionStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{sessions: make(map[string]entry), now: time.Now}
}

func (s *Store) Save(_ context.Context, sess account.Session, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e := entry{sess: sess}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.sessions[sess.ID] = e
	return nil
}

func (s *Store) Get(_ context.Context, id string) (account.Session, error) {
	s.mutex.RLock()
	e, ok := s.sessions[id]
	s.mutex.RUnlock()

	if !ok {
		return account.Session{}, account.ErrSessionNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.mutex.Lock()
		delete(s.sessions, id)
		s.mutex.Unlock()
		return account.Session{}, account.ErrSessionNotFound
	}
	return e.sess, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, id)
	return nil
}
