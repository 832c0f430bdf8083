// internal/session/session.go

// Package session keeps per-conversation state in memory. History is
// bounded: once the limit is reached the oldest turn is evicted first.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sales-insights/internal/models"
)

const DefaultHistoryLimit = 50

type State struct {
	mu    sync.Mutex
	id    string
	limit int
	turns []models.ConversationTurn

	// processing serializes queries: one in-flight utterance per session.
	processing sync.Mutex
}

func New(id string, limit int) *State {
	if id == "" {
		id = uuid.NewString()
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &State{id: id, limit: limit}
}

func (s *State) ID() string {
	return s.id
}

// BeginQuery blocks until no other query is in flight for this session.
// Every BeginQuery must be paired with EndQuery.
func (s *State) BeginQuery() {
	s.processing.Lock()
}

func (s *State) EndQuery() {
	s.processing.Unlock()
}

// Append records a turn, evicting the oldest when the history is full.
func (s *State) Append(turn models.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.At.IsZero() {
		turn.At = time.Now().UTC()
	}
	if len(s.turns) >= s.limit {
		s.turns = s.turns[len(s.turns)-s.limit+1:]
	}
	s.turns = append(s.turns, turn)
}

// Turns returns a copy of the history, oldest first.
func (s *State) Turns() []models.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Manager hands out session state keyed by id, creating on first use.
type Manager struct {
	mu       sync.Mutex
	limit    int
	sessions map[string]*State
}

func NewManager(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Manager{limit: limit, sessions: make(map[string]*State)}
}

// Get returns the session for id, creating it if absent. An empty id gets
// a fresh session with a generated id.
func (m *Manager) Get(id string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		s := New("", m.limit)
		m.sessions[s.ID()] = s
		return s
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := New(id, m.limit)
	m.sessions[id] = s
	return s
}
