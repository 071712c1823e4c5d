package engine

import (
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
)

// Session is the running transcript of one conversation. Long-term recall
// comes from the Cortex; the transcript only carries the last few turns
// verbatim.
type Session struct {
	ID        string
	TurnCount int

	messages []anthropic.MessageParam
	mu       sync.Mutex
}

// NewSession creates a session with a fresh id.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

func (s *Session) addExchange(user, assistant string, maxTurns int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TurnCount++
	s.messages = append(s.messages,
		anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		anthropic.NewAssistantMessage(anthropic.NewTextBlock(assistant)),
	)
	if maxTurns > 0 && len(s.messages) > 2*maxTurns {
		s.messages = s.messages[len(s.messages)-2*maxTurns:]
	}
}

// messagesWith returns the retained transcript followed by next as a new user
// message.
func (s *Session) messagesWith(next string) []anthropic.MessageParam {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]anthropic.MessageParam, 0, len(s.messages)+1)
	out = append(out, s.messages...)
	return append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(next)))
}

// Len returns the number of retained transcript messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
