package feedback

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jonathan/algomentor/internal/llm"
	"github.com/jonathan/algomentor/internal/prompts"
	"github.com/jonathan/algomentor/internal/types"
)

// DefaultHistorySize is how many exchanges a conversation keeps.
const DefaultHistorySize = 2

// ErrEmptyQuery is returned when Ask is called without a question.
var ErrEmptyQuery = errors.New("no doubt provided")

// Conversation is the bounded history of one user's chat session. The
// oldest exchange is evicted first. Safe for concurrent use.
type Conversation struct {
	mu       sync.Mutex
	capacity int
	turns    []types.ChatTurn
}

// NewConversation creates a conversation keeping at most capacity turns.
// A non-positive capacity uses DefaultHistorySize.
func NewConversation(capacity int) *Conversation {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &Conversation{capacity: capacity}
}

// Add appends a turn, evicting the oldest when full.
func (c *Conversation) Add(turn types.ChatTurn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
	if over := len(c.turns) - c.capacity; over > 0 {
		c.turns = append([]types.ChatTurn(nil), c.turns[over:]...)
	}
}

// Turns returns a copy of the retained turns, oldest first.
func (c *Conversation) Turns() []types.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ChatTurn(nil), c.turns...)
}

// Reset drops all turns.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.turns = nil
	c.mu.Unlock()
}

// Render formats the retained turns for inclusion in a prompt.
func (c *Conversation) Render() string {
	turns := c.Turns()
	if len(turns) == 0 {
		return "(no earlier conversation)"
	}
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("User: ")
		sb.WriteString(t.Query)
		sb.WriteString("\nAlgoMentor: ")
		sb.WriteString(t.Response)
	}
	return sb.String()
}

// Mentor answers free-text questions in the coaching persona.
type Mentor struct {
	client llm.Client
}

// NewMentor creates a Mentor over client.
func NewMentor(client llm.Client) *Mentor {
	return &Mentor{client: client}
}

// Ask answers query with the conversation as context and records the
// exchange. Failed calls leave the conversation unchanged.
func (m *Mentor) Ask(ctx context.Context, conv *Conversation, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	prompt, err := prompts.Mentor(prompts.KeyChat, map[string]string{
		"History": conv.Render(),
		"Query":   query,
	})
	if err != nil {
		return "", &GenerationError{Message: "failed to build prompt", Cause: err}
	}

	answer, err := m.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		if llm.IsRateLimited(err) {
			return "", &RateLimitedError{Cause: err}
		}
		return "", &GenerationError{Message: "model call failed", Cause: err}
	}

	conv.Add(types.ChatTurn{Query: query, Response: answer})
	return answer, nil
}
