package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tablecall/tablecall/internal/dependencies/clock"
	"github.com/tablecall/tablecall/internal/domain/session"
)

type entry struct {
	session   *session.Session
	expiresAt time.Time
}

// SessionStore keeps sessions in process memory. Entries idle for longer than ttl read as IDLE.
type SessionStore struct {
	mu      sync.Mutex
	entries map[int64]entry
	ttl     time.Duration
	clock   clock.Clock
}

// NewSessionStore creates an in-memory session store whose entries expire after ttl.
func NewSessionStore(ttl time.Duration, clk clock.Clock) *SessionStore {
	return &SessionStore{
		entries: make(map[int64]entry),
		ttl:     ttl,
		clock:   clk,
	}
}

func (s *SessionStore) Load(_ context.Context, chatID int64) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[chatID]
	if !ok {
		return session.New(chatID), nil
	}
	if s.ttl > 0 && !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, chatID)
		return session.New(chatID), nil
	}
	return e.session.Clone(), nil
}

func (s *SessionStore) Save(_ context.Context, sess *session.Session) error {
	now := s.clock.Now()
	stored := sess.Clone()
	stored.UpdatedAt = now
	s.mu.Lock()
	s.entries[sess.ChatID] = entry{session: stored, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.entries, chatID)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
