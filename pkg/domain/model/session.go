package model

import (
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
)

// Role identifies the author of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn half
type Message struct {
	Role    Role
	Content string
}

// Session holds the volatile state of one therapist conversation.
// Sessions exist only for the lifetime of the process; there is no
// persistence and no explicit deletion API.
type Session struct {
	ID             types.ConversationID
	Messages       []Message
	RollingSummary string
}

// LastMessages returns up to n of the most recent messages, oldest first
func (s *Session) LastMessages(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// Clone returns a deep copy so callers can read session state without
// holding the store lock
func (s *Session) Clone() *Session {
	copied := &Session{
		ID:             s.ID,
		RollingSummary: s.RollingSummary,
	}
	if len(s.Messages) > 0 {
		copied.Messages = make([]Message, len(s.Messages))
		copy(copied.Messages, s.Messages)
	}
	return copied
}
