package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore.
// Every read returns a deep copy, so readers see either the state before or
// after a mutation and never a partially applied one.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	owners   map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		owners:   make(map[string]string),
	}
}

func (s *SessionStore) CreateIfAbsent(_ context.Context, session domain.Session) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerKey(session.UserID, session.QuizID)
	if id, ok := s.owners[key]; ok {
		return s.sessions[id].Clone(), false, nil
	}
	stored := session.Clone()
	s.sessions[stored.ID] = &stored
	s.owners[key] = stored.ID
	return stored.Clone(), true, nil
}

func (s *SessionStore) AppendAnswerAndAdvance(_ context.Context, sessionID string, expectedIndex int, answer domain.Answer, now time.Time) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err := stored.Apply(expectedIndex, answer, now); err != nil {
		return domain.Session{}, err
	}
	return stored.Clone(), nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return stored.Clone(), nil
}

func (s *SessionStore) FindByUserQuiz(_ context.Context, userID, quizID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.owners[ownerKey(userID, quizID)]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.sessions[id].Clone(), nil
}

func (s *SessionStore) ListInProgress(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, stored := range s.sessions {
		if !stored.IsCompleted {
			out = append(out, stored.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func ownerKey(userID, quizID string) string {
	return quizID + "\x00" + userID
}
