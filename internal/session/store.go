// Package session keeps per-conversation chat history in memory.
// Sessions are created lazily on first use and never expire on their own;
// an optional turn bound trims the oldest turns once exceeded.
package session

import "sync"

// Turn is one completed user/assistant exchange.
type Turn struct {
	User      string
	Assistant string
}

// Store holds conversation history keyed by session id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state
	maxTurns int
}

type state struct {
	mu    sync.Mutex
	turns []Turn
}

// NewStore creates a store. maxTurns bounds history length per session;
// zero means unbounded.
func NewStore(maxTurns int) *Store {
	return &Store{
		sessions: make(map[string]*state),
		maxTurns: maxTurns,
	}
}

func (s *Store) session(key string) *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[key]
	if !ok {
		st = &state{}
		s.sessions[key] = st
	}
	return st
}

// Append records a completed turn for the session, creating it if needed.
// When the store is bounded, the oldest turns are dropped first.
func (s *Store) Append(key, userMsg, assistantMsg string) {
	st := s.session(key)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.turns = append(st.turns, Turn{User: userMsg, Assistant: assistantMsg})
	if s.maxTurns > 0 && len(st.turns) > s.maxTurns {
		st.turns = st.turns[len(st.turns)-s.maxTurns:]
	}
}

// History returns a copy of the session's turns in chronological order.
// An unknown session yields an empty history.
func (s *Store) History(key string) []Turn {
	st := s.session(key)
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Turn, len(st.turns))
	copy(out, st.turns)
	return out
}
