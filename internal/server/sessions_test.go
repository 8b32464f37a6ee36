package server

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/algomentor/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestSessions_PerUser(t *testing.T) {
	s := NewSessions(2, time.Hour)
	alice, bob := uuid.New(), uuid.New()

	s.Conversation(alice).Add(types.ChatTurn{Query: "q", Response: "a"})

	assert.Len(t, s.Conversation(alice).Turns(), 1)
	assert.Empty(t, s.Conversation(bob).Turns())
	assert.Equal(t, 2, s.Len())
}

func TestSessions_IdleConversationRestarts(t *testing.T) {
	s := NewSessions(2, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	id := uuid.New()
	s.Conversation(id).Add(types.ChatTurn{Query: "q", Response: "a"})

	now = now.Add(2 * time.Minute)
	assert.Empty(t, s.Conversation(id).Turns())
}

func TestSessions_Prune(t *testing.T) {
	s := NewSessions(2, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	old, fresh := uuid.New(), uuid.New()
	s.Conversation(old)

	now = now.Add(90 * time.Second)
	s.Conversation(fresh)

	assert.Equal(t, 1, s.Prune())
	assert.Equal(t, 1, s.Len())
}

func TestSessions_Reset(t *testing.T) {
	s := NewSessions(0, 0)
	id := uuid.New()
	s.Conversation(id).Add(types.ChatTurn{Query: "q", Response: "a"})
	s.Reset(id)
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Conversation(id).Turns())
}
