// Package store holds the in-memory session list mirrored from the chat
// backend. Membership only grows or updates in place for the lifetime of one
// connection; a fresh bulk snapshot replaces it wholesale.
package store

import (
	"sync"

	"github.com/adminhub/chat-notify-go/internal/model"
)

type SessionStore struct {
	mu       sync.RWMutex
	sessions []model.ChatSession
}

func New() *SessionStore {
	return &SessionStore{}
}

// ReplaceAll installs the bulk snapshot, dropping whatever was held before.
// Order is preserved exactly as sent.
func (s *SessionStore) ReplaceAll(sessions []model.ChatSession) {
	next := make([]model.ChatSession, len(sessions))
	copy(next, sessions)

	s.mu.Lock()
	s.sessions = next
	s.mu.Unlock()
}

// Upsert applies one incremental session event: an existing id is replaced in
// place keeping the relative order of other entries, a new id is prepended so
// the list stays most-recent-first.
func (s *SessionStore) Upsert(session model.ChatSession) {
	s.mu.Lock()
	s.sessions = upsert(s.sessions, session)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current list.
func (s *SessionStore) Snapshot() []model.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ChatSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// upsert is a pure function of the current list plus the incoming session, so
// replaying the same event is idempotent.
func upsert(cur []model.ChatSession, in model.ChatSession) []model.ChatSession {
	for i, existing := range cur {
		if existing.ID == in.ID {
			next := make([]model.ChatSession, len(cur))
			copy(next, cur)
			next[i] = in
			return next
		}
	}

	next := make([]model.ChatSession, 0, len(cur)+1)
	next = append(next, in)
	next = append(next, cur...)
	return next
}
