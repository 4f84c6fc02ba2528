package repository

import (
	"context"
	"sort"
	"sync"

	"notepomo/internal/model"
)

// MemoryStore is an in-process PomodoroStore. Transactions hold the store
// lock for their whole duration and work on a copy that replaces the live
// data only when fn succeeds.
type MemoryStore struct {
	mu       sync.Mutex
	notes    map[string]model.Note
	sessions map[string]model.PomodoroSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notes:    make(map[string]model.Note),
		sessions: make(map[string]model.PomodoroSession),
	}
}

// PutNote inserts or replaces a note.
func (m *MemoryStore) PutNote(note model.Note) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[note.ID] = note
}

// Note returns a copy of a stored note, including soft-deleted ones.
func (m *MemoryStore) Note(noteID string) (model.Note, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[noteID]
	return note, ok
}

// Session returns a copy of a stored session.
func (m *MemoryStore) Session(sessionID string) (model.PomodoroSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

func (m *MemoryStore) WithinTx(ctx context.Context, fn func(tx PomodoroTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		notes:    make(map[string]model.Note, len(m.notes)),
		sessions: make(map[string]model.PomodoroSession, len(m.sessions)),
	}
	for id, note := range m.notes {
		tx.notes[id] = note
	}
	for id, session := range m.sessions {
		tx.sessions[id] = session
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.notes = tx.notes
	m.sessions = tx.sessions
	return nil
}

func (m *MemoryStore) GetNote(_ context.Context, noteID string) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lookupNote(m.notes, noteID)
}

func (m *MemoryStore) ListRunningSessions(_ context.Context, userID string) ([]model.PomodoroSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]model.PomodoroSession, 0)
	for _, session := range m.sessions {
		if session.UserID == userID && !session.State.IsTerminal() {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sessions, nil
}

type memoryTx struct {
	notes    map[string]model.Note
	sessions map[string]model.PomodoroSession
}

func (t *memoryTx) GetNote(_ context.Context, noteID string) (*model.Note, error) {
	return lookupNote(t.notes, noteID)
}

func (t *memoryTx) GetSession(_ context.Context, sessionID string) (*model.PomodoroSession, error) {
	session, ok := t.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (t *memoryTx) FindRunningSession(_ context.Context, noteID, userID string) (*model.PomodoroSession, error) {
	var found *model.PomodoroSession
	for _, session := range t.sessions {
		if session.NoteID != noteID || session.UserID != userID || session.State.IsTerminal() {
			continue
		}
		if found == nil || session.StartedAt.Before(found.StartedAt) {
			candidate := session
			found = &candidate
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (t *memoryTx) InsertSession(ctx context.Context, session *model.PomodoroSession) error {
	if _, exists := t.sessions[session.ID]; exists {
		return ErrConflict
	}
	if !session.State.IsTerminal() {
		if _, err := t.FindRunningSession(ctx, session.NoteID, session.UserID); err == nil {
			return ErrConflict
		}
	}
	t.sessions[session.ID] = *session
	return nil
}

func (t *memoryTx) UpdateSession(_ context.Context, session *model.PomodoroSession) error {
	stored, ok := t.sessions[session.ID]
	if !ok || stored.Version != session.Version {
		return ErrConflict
	}
	session.Version++
	t.sessions[session.ID] = *session
	return nil
}

func (t *memoryTx) IncrementPomodoroCount(_ context.Context, noteID string) (int, error) {
	note, ok := t.notes[noteID]
	if !ok {
		return 0, ErrNotFound
	}
	note.PomodoroCount++
	t.notes[noteID] = note
	return note.PomodoroCount, nil
}

func lookupNote(notes map[string]model.Note, noteID string) (*model.Note, error) {
	note, ok := notes[noteID]
	if !ok || note.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return &note, nil
}
