package dialogue

import (
	"sync"
	"time"

	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/metrics"
)

// Session is the conversation position of one user.
type Session struct {
	UserID    int64
	State     State
	UpdatedAt time.Time
}

// SessionStore keeps sessions between turns. Implementations must be safe for concurrent use.
type SessionStore interface {
	Load(userID int64) (Session, bool)
	Save(session Session)
	Delete(userID int64)
}

var _ SessionStore = (*MemorySessionStore)(nil)

// MemorySessionStore holds sessions in process memory and forgets them after an idle TTL.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
	ttl      time.Duration
	now      func() time.Time
}

// MemoryOption customises a MemorySessionStore.
type MemoryOption func(*MemorySessionStore)

// WithSessionClock overrides the clock used for expiry.
func WithSessionClock(now func() time.Time) MemoryOption {
	return func(s *MemorySessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemorySessionStore builds a store. A non-positive ttl disables expiry.
func NewMemorySessionStore(ttl time.Duration, opts ...MemoryOption) *MemorySessionStore {
	s := &MemorySessionStore{
		sessions: make(map[int64]Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the live session of userID. Expired sessions are dropped.
func (s *MemorySessionStore) Load(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if s.expired(session, s.now()) {
		delete(s.sessions, userID)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
		return Session{}, false
	}
	return session, true
}

// Save stores session, stamping UpdatedAt when unset.
func (s *MemorySessionStore) Save(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = s.now()
	}
	s.sessions[session.UserID] = session
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

// Delete forgets the session of userID.
func (s *MemorySessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

// Sweep drops every expired session and reports how many were removed.
func (s *MemorySessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return removed
}

// Len reports the number of stored sessions, expired or not.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemorySessionStore) expired(session Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.UpdatedAt) >= s.ttl
}
