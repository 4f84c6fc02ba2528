package repository

import (
	"context"

	"notepomo/internal/model"
)

// PomodoroTx is the set of reads and writes a single session transition may
// perform. Everything done through one PomodoroTx commits or rolls back together.
type PomodoroTx interface {
	GetNote(ctx context.Context, noteID string) (*model.Note, error)
	GetSession(ctx context.Context, sessionID string) (*model.PomodoroSession, error)
	FindRunningSession(ctx context.Context, noteID, userID string) (*model.PomodoroSession, error)
	InsertSession(ctx context.Context, session *model.PomodoroSession) error
	// UpdateSession writes session if its stored version still equals
	// session.Version, then bumps session.Version. Otherwise ErrConflict.
	UpdateSession(ctx context.Context, session *model.PomodoroSession) error
	IncrementPomodoroCount(ctx context.Context, noteID string) (int, error)
}

// PomodoroStore is what the session engine needs from durable storage.
type PomodoroStore interface {
	WithinTx(ctx context.Context, fn func(tx PomodoroTx) error) error
	GetNote(ctx context.Context, noteID string) (*model.Note, error)
	ListRunningSessions(ctx context.Context, userID string) ([]model.PomodoroSession, error)
}
