package session

import (
	"context"
	"sync"

	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Store keeps conversation state in process memory. Sessions do not
// survive a restart.
//
// Each session carries its own mutex so that concurrent turns on the
// same conversation are serialized while turns on different
// conversations proceed in parallel.
type Store struct {
	mu       sync.Mutex
	sessions map[types.ConversationID]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *model.Session
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		sessions: make(map[types.ConversationID]*sessionEntry),
	}
}

// Resolve returns the given conversation ID, minting a fresh one when
// id is empty, and makes sure a session exists for it.
func (s *Store) Resolve(id types.ConversationID) types.ConversationID {
	if id == "" {
		id = types.NewConversationID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; !exists {
		s.sessions[id] = &sessionEntry{
			session: &model.Session{ID: id},
		}
	}
	return id
}

// WithSession runs fn while holding the session's lock. The session is
// created when absent. Mutations fn applies to the session are kept;
// when fn returns an error the mutations it already applied still
// stand, so fn must leave the session consistent on every path.
func (s *Store) WithSession(ctx context.Context, id types.ConversationID, fn func(session *model.Session) error) error {
	if id == "" {
		return goerr.New("conversation ID is required")
	}

	s.mu.Lock()
	entry, exists := s.sessions[id]
	if !exists {
		entry = &sessionEntry{session: &model.Session{ID: id}}
		s.sessions[id] = entry
	}
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(entry.session)
}

// Snapshot returns a deep copy of the session, or nil when it does not
// exist
func (s *Store) Snapshot(id types.ConversationID) *model.Session {
	s.mu.Lock()
	entry, exists := s.sessions[id]
	s.mu.Unlock()
	if !exists {
		return nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Clone()
}

// Evict drops a single session
func (s *Store) Evict(id types.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Clear drops all sessions
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[types.ConversationID]*sessionEntry)
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
