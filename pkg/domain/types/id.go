package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// EntryID represents a unique identifier for a journal entry
type EntryID string

// NewEntryID generates a new UUID v4 EntryID
func NewEntryID() EntryID {
	return EntryID(uuid.New().String())
}

// Validate checks if the EntryID is valid
func (x EntryID) Validate() error {
	if x == "" {
		return goerr.New("entry ID cannot be empty")
	}
	return nil
}

// String returns the string representation of EntryID
func (x EntryID) String() string {
	return string(x)
}

// ConversationID represents a unique identifier for a therapist conversation.
// Conversations live only in process memory; the ID is never persisted.
type ConversationID string

// NewConversationID generates a new time-ordered ConversationID
func NewConversationID() ConversationID {
	return ConversationID(uuid.Must(uuid.NewV7()).String())
}

// Validate checks if the ConversationID is valid
func (x ConversationID) Validate() error {
	if x == "" {
		return goerr.New("conversation ID cannot be empty")
	}
	return nil
}

// String returns the string representation of ConversationID
func (x ConversationID) String() string {
	return string(x)
}
