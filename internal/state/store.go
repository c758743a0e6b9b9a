// Package state holds the authoritative in-memory world: the character
// roster and all chat sessions. Reads hand out deep copies; every mutation
// runs as a function under the store's write lock, so concurrent reply
// workers never observe a half-applied update.
package state

import (
	"sort"
	"sync"

	"github.com/hearthside/companion/internal/types"
)

// Store is the mutable world state.
type Store struct {
	mu              sync.RWMutex
	characters      map[string]*types.Character
	sessions        map[string]*types.ChatSession
	activeSessionID string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		characters: make(map[string]*types.Character),
		sessions:   make(map[string]*types.ChatSession),
	}
}

// Load replaces the whole world state, typically from persistence at startup.
func (s *Store) Load(characters []*types.Character, sessions []*types.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters = make(map[string]*types.Character, len(characters))
	for _, c := range characters {
		if c == nil || c.ID == "" {
			continue
		}
		s.characters[c.ID] = cloneCharacter(c)
	}
	s.sessions = make(map[string]*types.ChatSession, len(sessions))
	for _, sess := range sessions {
		if sess == nil || sess.ID == "" {
			continue
		}
		s.sessions[sess.ID] = cloneSession(sess)
	}
	s.activeSessionID = ""
}

// Character returns a copy of one roster entry.
func (s *Store) Character(id string) (*types.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[id]
	if !ok {
		return nil, false
	}
	return cloneCharacter(c), true
}

// Characters returns copies of the requested roster entries, skipping
// unknown ids.
func (s *Store) Characters(ids []string) []*types.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Character, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.characters[id]; ok {
			out = append(out, cloneCharacter(c))
		}
	}
	return out
}

// AllCharacters returns copies of the whole roster, ordered by id.
func (s *Store) AllCharacters() []*types.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.characters))
	for id := range s.characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*types.Character, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneCharacter(s.characters[id]))
	}
	return out
}

// KnownCharacterIDs filters ids down to those present in the roster,
// preserving order and dropping duplicates.
func (s *Store) KnownCharacterIDs(ids []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := s.characters[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// PutCharacter inserts or replaces a roster entry.
func (s *Store) PutCharacter(c *types.Character) {
	if c == nil || c.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[c.ID] = cloneCharacter(c)
}

// MutateCharacter runs fn on the live roster entry under the write lock.
// It reports whether the character exists.
func (s *Store) MutateCharacter(id string, fn func(*types.Character)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[id]
	if !ok {
		return false
	}
	fn(c)
	return true
}

// Session returns a copy of one session.
func (s *Store) Session(id string) (*types.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return cloneSession(sess), true
}

// Sessions returns copies of every session.
func (s *Store) Sessions() []*types.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, cloneSession(sess))
	}
	return out
}

// PutSession inserts or replaces a session.
func (s *Store) PutSession(sess *types.ChatSession) {
	if sess == nil || sess.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = cloneSession(sess)
}

// MutateSession runs fn on the live session under the write lock. It reports
// whether the session exists.
func (s *Store) MutateSession(id string, fn func(*types.ChatSession)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// DeleteSession removes a session, clearing the active pointer if it pointed
// there. It reports whether the session existed.
func (s *Store) DeleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	if s.activeSessionID == id {
		s.activeSessionID = ""
	}
	return true
}

// ActiveSessionID returns the currently focused session id, if any.
func (s *Store) ActiveSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSessionID
}

// SetActiveSession points the focus at a session. It reports whether the
// session exists; an empty id always succeeds and clears the focus.
func (s *Store) SetActiveSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.activeSessionID = ""
		return true
	}
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	s.activeSessionID = id
	return true
}
