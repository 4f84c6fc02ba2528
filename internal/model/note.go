package model

import "time"

const (
	NoteStatusPlanned    = "planned"
	NoteStatusInProgress = "in_progress"
	NoteStatusCompleted  = "completed"
	NoteStatusCanceled   = "canceled"
)

const (
	MaxNotePomodoroSeconds = 5 * 60 * 60
	MaxNotePomodoroMinutes = 300
)

type Note struct {
	ID                      string     `json:"id"`
	UserID                  string     `json:"userId"`
	Data                    string     `json:"data"`
	Status                  string     `json:"status"`
	PomodoroCount           int        `json:"pomodoros"`
	PomodoroDurationSeconds int        `json:"pomodoroSeconds"`
	FinishBy                *time.Time `json:"finishBy,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
	DeletedAt               *time.Time `json:"-"`
}

func IsValidNoteStatus(status string) bool {
	switch status {
	case NoteStatusPlanned, NoteStatusInProgress, NoteStatusCompleted, NoteStatusCanceled:
		return true
	}
	return false
}

// SessionSeconds is the note's configured interval length, or the system
// default when the note has none.
func (n *Note) SessionSeconds() int {
	if n == nil || n.PomodoroDurationSeconds <= 0 {
		return DefaultPomodoroSeconds
	}
	return n.PomodoroDurationSeconds
}
