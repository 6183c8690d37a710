package state

import (
	"context"
	"sync"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

type undoSnapshot struct {
	label    string
	sessions []domain.Session
}

// InMemoryStore is the reference StateStore implementation: everything
// lives behind a mutex, matching spec §5's "Implementations may keep State
// behind a mutex; readers take a consistent snapshot at the start."
type InMemoryStore struct {
	mu         sync.RWMutex
	sessions   []domain.Session
	exams      []domain.Exam
	rooms      []domain.RoomConfig
	exclusions domain.ExclusionSet
	groupes    map[string][]string

	undo []undoSnapshot
}

// NewInMemoryStore builds an empty in-memory store seeded with the given
// room catalogue, filière exclusions, and subject->filière map — the parts
// of state a caller typically loads once from configuration rather than
// mutating at runtime.
func NewInMemoryStore(rooms []domain.RoomConfig, exclusions domain.ExclusionSet, groupes map[string][]string) *InMemoryStore {
	if groupes == nil {
		groupes = map[string][]string{}
	}
	return &InMemoryStore{rooms: rooms, exclusions: exclusions, groupes: groupes}
}

func (s *InMemoryStore) GetSessions(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSessions(s.sessions), nil
}

func (s *InMemoryStore) SetSessions(_ context.Context, sessions []domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = cloneSessions(sessions)
	return nil
}

func (s *InMemoryStore) GetExams(_ context.Context) ([]domain.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Exam, len(s.exams))
	copy(out, s.exams)
	return out, nil
}

func (s *InMemoryStore) SetExams(_ context.Context, exams []domain.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams = make([]domain.Exam, len(exams))
	copy(s.exams, exams)
	return nil
}

func (s *InMemoryStore) GetRoomConfigs(_ context.Context) ([]domain.RoomConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RoomConfig, len(s.rooms))
	copy(out, s.rooms)
	return out, nil
}

func (s *InMemoryStore) GetFiliereExclusions(_ context.Context) (domain.ExclusionSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.ExclusionSet, len(s.exclusions))
	copy(out, s.exclusions)
	return out, nil
}

func (s *InMemoryStore) GetMatiereGroupes(_ context.Context) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.groupes))
	for k, v := range s.groupes {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

// SaveState is a no-op for the in-memory store — there is nothing beyond
// the map itself to flush — and always reports success.
func (s *InMemoryStore) SaveState(_ context.Context) (bool, error) {
	return true, nil
}

func (s *InMemoryStore) PushUndoSnapshot(_ context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = append(s.undo, undoSnapshot{label: label, sessions: cloneSessions(s.sessions)})
	return nil
}

// Rollback restores the sessions collection captured under the most
// recent PushUndoSnapshot call with the given label, popping it off the
// undo stack. It reports false if no such snapshot exists.
func (s *InMemoryStore) Rollback(_ context.Context, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.undo) - 1; i >= 0; i-- {
		if s.undo[i].label != label {
			continue
		}
		s.sessions = s.undo[i].sessions
		s.undo = append(s.undo[:i], s.undo[i+1:]...)
		return true
	}
	return false
}

func cloneSessions(sessions []domain.Session) []domain.Session {
	out := make([]domain.Session, len(sessions))
	for i, s := range sessions {
		out[i] = s.Clone()
	}
	return out
}
