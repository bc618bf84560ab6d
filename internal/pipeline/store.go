package pipeline

import "sync"

// SessionStore holds in-flight evaluation sessions keyed by candidate ID.
// Sessions are volatile working state; they leave the store on cancellation
// or after successful finalization and indexing. The in-memory implementation
// is the default, but the orchestrator only depends on this interface so a
// distributed store can be swapped in.
type SessionStore interface {
	Get(candidateID string) (*EvaluationSession, error)
	Put(session *EvaluationSession) error
	Delete(candidateID string)
	Exists(candidateID string) bool
	Count() int
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*EvaluationSession
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]*EvaluationSession),
	}
}

func (m *memorySessionStore) Get(candidateID string) (*EvaluationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[candidateID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *memorySessionStore) Put(session *EvaluationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[session.CandidateID]; exists {
		return NewValidationError("evaluation already in progress for candidate %s", session.CandidateID)
	}
	m.sessions[session.CandidateID] = session
	return nil
}

func (m *memorySessionStore) Delete(candidateID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, candidateID)
}

func (m *memorySessionStore) Exists(candidateID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[candidateID]
	return ok
}

func (m *memorySessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
