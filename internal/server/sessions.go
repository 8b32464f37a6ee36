package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/algomentor/internal/feedback"
)

// DefaultSessionIdle is how long an unused chat conversation is kept.
const DefaultSessionIdle = 2 * time.Hour

type session struct {
	conv     *feedback.Conversation
	lastUsed time.Time
}

// Sessions holds one mentor conversation per user.
type Sessions struct {
	mu       sync.Mutex
	byUser   map[uuid.UUID]*session
	capacity int
	idle     time.Duration
	now      func() time.Time
}

// NewSessions creates a registry keeping capacity turns per user and
// dropping conversations idle for longer than idle.
func NewSessions(capacity int, idle time.Duration) *Sessions {
	if capacity <= 0 {
		capacity = feedback.DefaultHistorySize
	}
	if idle <= 0 {
		idle = DefaultSessionIdle
	}
	return &Sessions{
		byUser:   make(map[uuid.UUID]*session),
		capacity: capacity,
		idle:     idle,
		now:      time.Now,
	}
}

// Conversation returns the user's conversation, starting a new one if none
// exists or the old one went idle.
func (s *Sessions) Conversation(userID uuid.UUID) *feedback.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.byUser[userID]
	if !ok || now.Sub(sess.lastUsed) > s.idle {
		sess = &session{conv: feedback.NewConversation(s.capacity)}
		s.byUser[userID] = sess
	}
	sess.lastUsed = now
	return sess.conv
}

// Reset forgets the user's conversation.
func (s *Sessions) Reset(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}

// Prune drops idle conversations and returns how many were removed.
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.byUser {
		if now.Sub(sess.lastUsed) > s.idle {
			delete(s.byUser, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live conversations.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}
