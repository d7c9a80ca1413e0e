// Package session keeps per-session conversation history in a bounded
// sliding window. The contract (append, read-last-N, trim-to-cap) is
// backing-store agnostic: the in-process implementation here serves
// single-instance deployments, and an external cache can implement the
// same interface for multi-instance ones.
package session

import (
	"sync"
	"time"
)

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a session.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Language  string // detected language, set on user turns
}

// DefaultHistoryCap bounds the per-session sliding window.
const DefaultHistoryCap = 20

// Store is the session history contract used by the orchestrator.
type Store interface {
	// Append adds a turn to the session, evicting the oldest turns once
	// the history exceeds the cap. Safe for concurrent sessions.
	Append(sessionID string, turn Turn)

	// LastN returns up to n most recent turns in chronological order.
	LastN(sessionID string, n int) []Turn

	// Language returns the pinned session language, or "" if none.
	Language(sessionID string) string

	// SetLanguage pins the session language. The first successful call
	// wins for the session's lifetime.
	SetLanguage(sessionID, language string)
}

// MemoryStore is the in-process Store: a mutex-guarded map of session id
// to a capped turn slice. Each session's turns are only touched by
// requests carrying that session id, but the map itself needs safe
// insert-if-absent for new ids.
type MemoryStore struct {
	mu       sync.Mutex
	cap      int
	sessions map[string]*sessionState
}

type sessionState struct {
	turns    []Turn
	language string
}

// NewMemoryStore creates a store with the given history cap per session
// (0 selects DefaultHistoryCap).
func NewMemoryStore(historyCap int) *MemoryStore {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &MemoryStore{
		cap:      historyCap,
		sessions: make(map[string]*sessionState),
	}
}

func (s *MemoryStore) Append(sessionID string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state(sessionID)
	state.turns = append(state.turns, turn)
	if len(state.turns) > s.cap {
		// Evict oldest; copy so the backing array does not grow without
		// bound under the sliding window.
		trimmed := make([]Turn, s.cap)
		copy(trimmed, state.turns[len(state.turns)-s.cap:])
		state.turns = trimmed
	}
}

func (s *MemoryStore) LastN(sessionID string, n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok || n <= 0 {
		return nil
	}
	start := len(state.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(state.turns)-start)
	copy(out, state.turns[start:])
	return out
}

func (s *MemoryStore) Language(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.sessions[sessionID]; ok {
		return state.language
	}
	return ""
}

func (s *MemoryStore) SetLanguage(sessionID, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state(sessionID)
	if state.language == "" {
		state.language = language
	}
}

// state returns the session, creating it if absent. Caller holds the
// lock.
func (s *MemoryStore) state(sessionID string) *sessionState {
	state, ok := s.sessions[sessionID]
	if !ok {
		state = &sessionState{}
		s.sessions[sessionID] = state
	}
	return state
}
